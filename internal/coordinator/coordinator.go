package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shelfwatch/shelfwatch/internal/abs"
)

// ConnectivityKey is the reserved cache key under which the coordinator
// records the outcome of each cycle. It is synthesised locally, never
// fetched, so it does not count against the one-request-per-endpoint
// rule.
const ConnectivityKey = "connectivity"

// CycleState describes where the coordinator is in its refresh cycle.
type CycleState string

const (
	// StateIdle means no cycle has run yet.
	StateIdle CycleState = "idle"
	// StateFetching means a cycle is currently in flight.
	StateFetching CycleState = "fetching"
	// StateSuccess means the last cycle fetched every endpoint.
	StateSuccess CycleState = "success"
	// StateFailed means the last cycle aborted; the cache still holds
	// the previous good data.
	StateFailed CycleState = "failed"
)

// String returns the state name.
func (s CycleState) String() string {
	return string(s)
}

// Status is a point-in-time snapshot of the coordinator's health.
type Status struct {
	State               CycleState
	LastSuccess         time.Time
	LastError           error
	ConsecutiveFailures int
}

// Fetcher fetches one endpoint's JSON payload. *abs.Client satisfies it.
type Fetcher interface {
	GetJSON(ctx context.Context, endpoint string) (map[string]any, error)
}

var _ Fetcher = (*abs.Client)(nil)

// Coordinator owns the polling cycle shared by all sensors. Each cycle
// fetches every distinct endpoint exactly once, in order, and replaces
// the whole data cache only when every fetch succeeded. On any failure
// the cycle aborts, previous endpoint data stays served and only the
// connectivity record flips.
type Coordinator struct {
	client    Fetcher
	endpoints []string
	interval  time.Duration
	logger    *slog.Logger

	mu          sync.RWMutex
	data        map[string]map[string]any
	state       CycleState
	lastSuccess time.Time
	lastErr     error
	failures    int

	listenerMu sync.Mutex
	listeners  []func()
}

// New creates a Coordinator polling the given endpoints every interval.
// Duplicate endpoints are collapsed and the remainder sorted, so the
// fetch order is deterministic.
func New(client Fetcher, endpoints []string, interval time.Duration, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		client:    client,
		endpoints: dedupe(endpoints),
		interval:  interval,
		logger:    logger,
		data:      make(map[string]map[string]any),
		state:     StateIdle,
	}
}

func dedupe(endpoints []string) []string {
	seen := make(map[string]struct{}, len(endpoints))
	distinct := make([]string, 0, len(endpoints))
	for _, ep := range endpoints {
		if _, ok := seen[ep]; ok {
			continue
		}
		seen[ep] = struct{}{}
		distinct = append(distinct, ep)
	}
	sort.Strings(distinct)
	return distinct
}

// Endpoints returns the distinct endpoints fetched each cycle.
func (c *Coordinator) Endpoints() []string {
	endpoints := make([]string, len(c.endpoints))
	copy(endpoints, c.endpoints)
	return endpoints
}

// Refresh runs one cycle synchronously: every endpoint is fetched once,
// sequentially. If all succeed the cache is swapped in a single step and
// the connectivity record reads true. The first failure aborts the
// cycle; remaining endpoints are not fetched.
func (c *Coordinator) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.state = StateFetching
	c.mu.Unlock()

	started := time.Now()
	fetched := make(map[string]map[string]any, len(c.endpoints)+1)
	for _, ep := range c.endpoints {
		payload, err := c.client.GetJSON(ctx, ep)
		if err != nil {
			c.recordFailure(err)
			c.notifyListeners()
			return fmt.Errorf("refresh aborted at %s: %w", ep, err)
		}
		fetched[ep] = payload
	}
	fetched[ConnectivityKey] = map[string]any{"success": true}

	c.mu.Lock()
	c.data = fetched
	c.state = StateSuccess
	c.lastSuccess = time.Now()
	c.lastErr = nil
	c.failures = 0
	c.mu.Unlock()

	c.logger.Debug("refresh cycle complete",
		"endpoints", len(c.endpoints),
		"duration_ms", time.Since(started).Milliseconds())

	c.notifyListeners()
	return nil
}

// recordFailure keeps the previous endpoint payloads but flips the
// connectivity record off. The cache is rebuilt rather than mutated so
// snapshots handed out earlier stay consistent.
func (c *Coordinator) recordFailure(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := make(map[string]map[string]any, len(c.data)+1)
	for k, v := range c.data {
		next[k] = v
	}
	next[ConnectivityKey] = map[string]any{"success": false}

	c.data = next
	c.state = StateFailed
	c.lastErr = err
	c.failures++
}

// Run refreshes on the configured interval until ctx is cancelled. The
// caller is expected to have run the first Refresh itself if it wants
// data before the first tick.
func (c *Coordinator) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Debug("refresh loop stopped")
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				c.logger.Warn("refresh cycle failed",
					"error", err,
					"consecutive_failures", c.Status().ConsecutiveFailures)
			}
		}
	}
}

// Data returns a snapshot of the cache: endpoint path to raw payload,
// plus the connectivity record. The top-level map is a copy; payloads
// are shared and must be treated as read-only.
func (c *Coordinator) Data() map[string]map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := make(map[string]map[string]any, len(c.data))
	for k, v := range c.data {
		snapshot[k] = v
	}
	return snapshot
}

// Endpoint returns the cached payload for one endpoint path.
func (c *Coordinator) Endpoint(path string) (map[string]any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	payload, ok := c.data[path]
	return payload, ok
}

// Status returns the coordinator's current cycle status.
func (c *Coordinator) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Status{
		State:               c.state,
		LastSuccess:         c.lastSuccess,
		LastError:           c.lastErr,
		ConsecutiveFailures: c.failures,
	}
}

// AddListener registers fn to run after every completed cycle, success
// or failure. Listeners run sequentially on the refreshing goroutine;
// panics are recovered and logged so one listener cannot stop the loop.
func (c *Coordinator) AddListener(fn func()) {
	if fn == nil {
		return
	}
	c.listenerMu.Lock()
	c.listeners = append(c.listeners, fn)
	c.listenerMu.Unlock()
}

func (c *Coordinator) notifyListeners() {
	c.listenerMu.Lock()
	listeners := make([]func(), len(c.listeners))
	copy(listeners, c.listeners)
	c.listenerMu.Unlock()

	for _, fn := range listeners {
		c.invokeListenerSafe(fn)
	}
}

func (c *Coordinator) invokeListenerSafe(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			stack := debug.Stack()
			c.logger.Error("refresh listener panic",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(stack))
		}
	}()
	fn()
}
