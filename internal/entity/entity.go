package entity

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shelfwatch/shelfwatch/internal/store"
)

// Info describes one sensor to the entity layer: identity, data source
// and derivation functions. It decouples entities from the public
// descriptor type.
type Info struct {
	// Key uniquely identifies the sensor.
	Key string

	// Endpoint is the cache key the sensor reads its payload from.
	Endpoint string

	// Name is the sensor's display name.
	Name string

	// Unit is the sensor's unit of measurement, if any.
	Unit string

	// Value derives the sensor's value from the endpoint payload. nil
	// means the sensor carries only attributes.
	Value func(data map[string]any) any

	// Attributes derives extra display attributes from the endpoint
	// payload. The result is merged into the existing attributes.
	Attributes func(data map[string]any) map[string]any

	// Restore controls whether persisted state is applied to this
	// sensor on startup.
	Restore bool
}

// Sensor holds one sensor's derived state. It applies the sensor's
// derivation functions to each refreshed payload, keeping the previous
// value when the endpoint has no data, when the derivation panics, or
// when a zero reading would clobber a meaningful one.
type Sensor struct {
	info   Info
	logger *slog.Logger

	mu         sync.RWMutex
	state      any
	attributes map[string]any
	updatedAt  time.Time
}

// NewSensor creates a Sensor with no state yet.
func NewSensor(info Info, logger *slog.Logger) *Sensor {
	return &Sensor{
		info:       info,
		logger:     logger,
		attributes: make(map[string]any),
	}
}

// Key returns the sensor's unique identifier.
func (s *Sensor) Key() string {
	return s.info.Key
}

// Endpoint returns the cache key the sensor reads from.
func (s *Sensor) Endpoint() string {
	return s.info.Endpoint
}

// Restorable reports whether persisted state may be applied to this
// sensor on startup.
func (s *Sensor) Restorable() bool {
	return s.info.Restore
}

// Update applies the sensor's derivation functions to the refreshed
// cache. Attributes are merged first, then the value is derived and
// accepted unless the suppression rule keeps the previous one: a new
// value of zero or nil is discarded while the sensor holds a value that
// is neither.
func (s *Sensor) Update(data map[string]map[string]any) {
	payload, ok := data[s.info.Endpoint]
	if !ok || payload == nil {
		s.logger.Debug("no data for sensor endpoint, keeping previous state",
			"sensor", s.info.Key,
			"endpoint", s.info.Endpoint)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	touched := false

	if s.info.Attributes != nil {
		attrs, err := s.deriveAttributes(payload)
		if err == nil && attrs != nil {
			for k, v := range attrs {
				s.attributes[k] = v
			}
			touched = true
		}
	}

	if s.info.Value != nil {
		value, err := s.deriveValue(payload)
		switch {
		case err != nil:
			// derivation panicked, already logged
		case isZeroOrNull(value) && !isZeroOrNull(s.state):
			s.logger.Debug("discarding zero reading, keeping previous state",
				"sensor", s.info.Key,
				"previous", s.state)
		default:
			s.state = value
			touched = true
		}
	}

	if touched {
		s.updatedAt = time.Now()
	}
}

// deriveValue runs the value function with panic recovery. A panicking
// derivation must not take down the refresh loop; it is logged with a
// correlation ID and the sensor keeps its previous value.
func (s *Sensor) deriveValue(payload map[string]any) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			stack := debug.Stack()
			s.logger.Error("sensor value derivation panic",
				"sensor", s.info.Key,
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(stack))
			err = fmt.Errorf("value derivation panic (correlation_id: %s)", correlationID)
		}
	}()
	return s.info.Value(payload), nil
}

func (s *Sensor) deriveAttributes(payload map[string]any) (attrs map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			stack := debug.Stack()
			s.logger.Error("sensor attributes derivation panic",
				"sensor", s.info.Key,
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(stack))
			err = fmt.Errorf("attributes derivation panic (correlation_id: %s)", correlationID)
		}
	}()
	return s.info.Attributes(payload), nil
}

// Restore applies a persisted state to the sensor. It reports false when
// the sensor opts out of restoration.
func (s *Sensor) Restore(saved store.SensorState) bool {
	if !s.info.Restore {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = saved.State
	for k, v := range saved.Attributes {
		s.attributes[k] = v
	}
	if !saved.UpdatedAt.IsZero() {
		s.updatedAt = saved.UpdatedAt
	} else {
		s.updatedAt = time.Now()
	}
	return true
}

// Snapshot returns the sensor's current state in storage form. The
// attributes map is a copy; nested values are shared and must be treated
// as read-only.
func (s *Sensor) Snapshot() store.SensorState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	attrs := make(map[string]any, len(s.attributes))
	for k, v := range s.attributes {
		attrs[k] = v
	}
	return store.SensorState{
		Key:        s.info.Key,
		Name:       s.info.Name,
		Unit:       s.info.Unit,
		State:      s.state,
		Attributes: attrs,
		UpdatedAt:  s.updatedAt,
	}
}

// isZeroOrNull reports whether v is nil or a numeric zero. These are the
// readings a flaky cycle produces, so they never replace a meaningful
// value.
func isZeroOrNull(v any) bool {
	switch n := v.(type) {
	case nil:
		return true
	case int:
		return n == 0
	case int64:
		return n == 0
	case float64:
		return n == 0
	default:
		return false
	}
}
