package shelfwatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shelfwatch/shelfwatch/dashboard"
	"github.com/shelfwatch/shelfwatch/internal/abs"
	"github.com/shelfwatch/shelfwatch/internal/coordinator"
	"github.com/shelfwatch/shelfwatch/internal/entity"
	"github.com/shelfwatch/shelfwatch/internal/server"
	"github.com/shelfwatch/shelfwatch/internal/store"
)

const (
	defaultScanInterval = 5 * time.Minute
	defaultPort         = 8080
)

// ShelfWatch is the main orchestrator for Audiobookshelf polling and
// dashboard serving.
//
// ShelfWatch probes the configured server, discovers its libraries, builds
// the sensor set and then refreshes all sensors on a shared cycle, serving
// their states via a real-time dashboard. It is created using [New] with
// functional options and started with [ShelfWatch.Start].
//
// The typical lifecycle is:
//
//	sw, err := shelfwatch.New(shelfwatch.WithServer(url, key))
//	if err != nil {
//	    slog.Error("failed to create shelfwatch", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	sw.Start(ctx) // blocks until context cancelled
//
// The caller controls the lifecycle via the context. Cancel the context to
// trigger graceful shutdown.
type ShelfWatch struct {
	title           string
	serverURL       string
	apiKey          string
	scanInterval    time.Duration
	port            int
	stateFile       string
	logger          *slog.Logger
	sensors         []Sensor
	updateCallbacks []func(SensorUpdate)
}

// New creates a new [ShelfWatch] instance with the given options.
//
// A server connection must be configured via [WithServer]. Other options
// have sensible defaults:
//   - Scan interval: 5 minutes
//   - Port: 8080
//
// Returns an error if no server is configured or if any option is invalid.
//
// Example:
//
//	sw, err := shelfwatch.New(
//	    shelfwatch.WithServer("http://audiobookshelf.local:13378", key),
//	    shelfwatch.WithScanInterval(time.Minute),
//	    shelfwatch.WithPort(9090),
//	)
func New(opts ...Option) (*ShelfWatch, error) {
	cfg := &swConfig{
		scanInterval: defaultScanInterval,
		port:         defaultPort,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.serverURL == "" {
		return nil, errors.New("server connection is required (use WithServer)")
	}

	// validate custom sensor key uniqueness (keys identify sensors in the store)
	seen := make(map[string]bool, len(cfg.sensors))
	for _, s := range cfg.sensors {
		if seen[s.Key()] {
			return nil, fmt.Errorf("duplicate sensor key: %q", s.Key())
		}
		seen[s.Key()] = true
	}

	if cfg.port < 1 || cfg.port > 65535 {
		return nil, fmt.Errorf("port must be between 1 and 65535, got %d", cfg.port)
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ShelfWatch{
		title:           cfg.title,
		serverURL:       cfg.serverURL,
		apiKey:          cfg.apiKey,
		scanInterval:    cfg.scanInterval,
		port:            cfg.port,
		stateFile:       cfg.stateFile,
		logger:          logger,
		sensors:         cfg.sensors,
		updateCallbacks: cfg.updateCallbacks,
	}, nil
}

// Start connects to the server, begins refreshing sensors and serves the
// dashboard.
//
// Start is a blocking call that runs until the provided context is cancelled.
// During execution:
//
//   - The server is probed once; an unreachable server aborts startup
//   - Libraries are discovered and per-library sensors registered
//   - All sensor endpoints are fetched immediately, then at the scan interval
//   - The HTTP server starts on the configured port
//   - The dashboard is available at http://localhost:<port>
//
// The caller controls the lifecycle via context cancellation. For signal handling,
// use [signal.NotifyContext]:
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//	sw.Start(ctx)
//
// Returns nil on graceful shutdown. Returns an error if the server probe
// fails or the HTTP server fails to start. Refresh failures after startup
// are not fatal; the dashboard keeps serving the last known good data.
func (sw *ShelfWatch) Start(ctx context.Context) error {
	sw.logger.Info("shelfwatch starting", "server", sw.serverURL)
	sw.logger.Info("scanning configured", "interval", sw.scanInterval.String())
	sw.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", sw.port))

	// check if context already cancelled
	if ctx.Err() != nil {
		return nil
	}

	client, err := abs.NewClient(sw.serverURL, sw.apiKey)
	if err != nil {
		return fmt.Errorf("invalid server configuration: %w", err)
	}
	defer client.Close()

	// a failed probe is fatal: without a reachable server there is nothing to watch
	if err := client.Probe(ctx); err != nil {
		return fmt.Errorf("audiobookshelf server not reachable: %w", err)
	}
	sw.logger.Debug("connectivity probe succeeded", "server", client.BaseURL())

	libraries := sw.discoverLibraries(ctx, client)

	registry := NewRegistry()
	for _, lib := range libraries {
		registry.AddLibrary(lib)
	}
	for _, s := range sw.sensors {
		registry.Add(s)
	}
	sw.logger.Info("sensors registered",
		"count", registry.Len(),
		"endpoints", len(registry.Endpoints()),
		"libraries", len(libraries))

	coord := coordinator.New(client, registry.Endpoints(), sw.scanInterval, sw.logger)
	stateStore := store.NewMemoryStore()

	entities := make([]*entity.Sensor, 0, registry.Len())
	for _, s := range registry.Sensors() {
		entities = append(entities, entity.NewSensor(toEntityInfo(s), sw.logger))
	}
	connectivity := entity.NewConnectivity(sw.logger)

	if sw.stateFile != "" {
		sw.restoreStates(entities, stateStore)
	}

	// subscribe before the first refresh so no update is missed
	updates := stateStore.Subscribe()

	runCtx, stopRun := context.WithCancel(ctx)
	defer stopRun()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sw.consumeUpdates(runCtx, updates)
	}()

	applyRefresh := func() {
		data := coord.Data()
		for _, e := range entities {
			e.Update(data)
			stateStore.Update(e.Snapshot())
		}
		connectivity.Update(data)
		stateStore.Update(connectivity.Snapshot())

		if sw.stateFile != "" && coord.Status().State == coordinator.StateSuccess {
			sw.persistStates(entities)
		}
	}
	coord.AddListener(applyRefresh)

	// first cycle runs synchronously so the dashboard has data on arrival
	if err := coord.Refresh(ctx); err != nil {
		sw.logger.Warn("initial refresh failed, serving connectivity only", "error", err)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		coord.Run(runCtx)
	}()

	// cleanup stops the refresh loop and update consumer in order
	cleanup := func() {
		stopRun()
		stateStore.Unsubscribe(updates)
		wg.Wait()
	}

	healthFn := func() server.Health {
		status := coord.Status()
		h := server.Health{
			Connected:           connectivity.IsOn(),
			CycleState:          status.State.String(),
			ConsecutiveFailures: status.ConsecutiveFailures,
		}
		if !status.LastSuccess.IsZero() {
			lastSuccess := status.LastSuccess
			h.LastSuccess = &lastSuccess
		}
		if status.LastError != nil {
			h.LastError = status.LastError.Error()
		}
		return h
	}

	httpServer := server.NewServer(stateStore, healthFn, sw.port, dashboard.Assets, sw.title, sw.logger)
	if err := httpServer.Start(ctx); err != nil {
		cleanup()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	<-ctx.Done()
	cleanup()
	sw.logger.Info("shelfwatch stopped")
	return nil
}

// discoverLibraries fetches the library list once at startup. Discovery
// failures are not fatal: the fixed sensors still work, only the
// per-library sensors are missing until the next restart.
func (sw *ShelfWatch) discoverLibraries(ctx context.Context, client *abs.Client) []Library {
	payload, err := client.GetJSON(ctx, endpointLibraries)
	if err != nil {
		sw.logger.Warn("library discovery failed, continuing without per-library sensors", "error", err)
		return nil
	}

	libraries, err := DecodeLibraries(payload)
	if err != nil {
		sw.logger.Warn("library discovery failed, continuing without per-library sensors", "error", err)
		return nil
	}
	return libraries
}

// consumeUpdates feeds store updates to the registered callbacks until the
// context is cancelled or the subscription channel closes.
func (sw *ShelfWatch) consumeUpdates(ctx context.Context, updates <-chan store.SensorState) {
	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-updates:
			if !ok {
				return
			}
			if len(sw.updateCallbacks) == 0 {
				continue
			}
			update := storeStateToUpdate(state)
			for _, cb := range sw.updateCallbacks {
				invokeCallbackSafe(cb, update, sw.logger)
			}
		}
	}
}

// restoreStates applies persisted states to restorable entities and seeds
// the live store with them.
func (sw *ShelfWatch) restoreStates(entities []*entity.Sensor, stateStore store.Store) {
	saved, err := store.LoadStates(sw.stateFile)
	if err != nil {
		sw.logger.Warn("failed to load persisted sensor states", "path", sw.stateFile, "error", err)
		return
	}
	if len(saved) == 0 {
		return
	}

	restored := 0
	for _, e := range entities {
		savedState, ok := saved[e.Key()]
		if !ok {
			continue
		}
		if e.Restore(savedState) {
			stateStore.Update(e.Snapshot())
			restored++
		}
	}
	if restored > 0 {
		sw.logger.Info("restored sensor states", "count", restored, "path", sw.stateFile)
	}
}

// persistStates writes the restorable entities' current states to the
// state file. Failures are logged, not returned: persistence is a comfort
// feature and must never stop the refresh loop.
func (sw *ShelfWatch) persistStates(entities []*entity.Sensor) {
	states := make([]store.SensorState, 0, len(entities))
	for _, e := range entities {
		if !e.Restorable() {
			continue
		}
		states = append(states, e.Snapshot())
	}

	if err := store.SaveStates(sw.stateFile, states); err != nil {
		sw.logger.Warn("failed to persist sensor states", "path", sw.stateFile, "error", err)
	}
}

// toEntityInfo converts a sensor descriptor to the entity layer's form.
// Sensors reading the authorize endpoint are never restored from disk;
// that payload carries credentials that must come fresh from the server.
func toEntityInfo(s Sensor) entity.Info {
	return entity.Info{
		Key:        s.Key(),
		Endpoint:   s.Endpoint(),
		Name:       s.Name(),
		Unit:       s.Unit(),
		Value:      s.Value(),
		Attributes: s.Attributes(),
		Restore:    s.Endpoint() != endpointAuthorize,
	}
}

// Sensors returns a copy of the configured custom sensors.
//
// The returned slice is a copy; modifying it does not affect the ShelfWatch.
// Each [Sensor] in the slice is immutable.
func (sw *ShelfWatch) Sensors() []Sensor {
	cp := make([]Sensor, len(sw.sensors))
	copy(cp, sw.sensors)
	return cp
}

// Port returns the configured HTTP port for the dashboard server.
func (sw *ShelfWatch) Port() int {
	return sw.port
}

// ScanInterval returns the configured interval between refresh cycles.
func (sw *ShelfWatch) ScanInterval() time.Duration {
	return sw.scanInterval
}

// storeStateToUpdate converts a store state to the public API type.
// Creates a defensive copy of the attributes map to prevent data races.
func storeStateToUpdate(state store.SensorState) SensorUpdate {
	return SensorUpdate{
		Key:        state.Key,
		Name:       state.Name,
		Unit:       state.Unit,
		State:      state.State,
		Attributes: copyAttributes(state.Attributes),
		UpdatedAt:  state.UpdatedAt,
	}
}

// copyAttributes returns a shallow copy of the attributes map, or nil if
// the input is nil.
func copyAttributes(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// invokeCallbackSafe calls an update callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(SensorUpdate), update SensorUpdate, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("update callback panicked",
				"panic", r,
				"sensor", update.Key,
			)
		}
	}()
	cb(update)
}
