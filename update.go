package shelfwatch

import "time"

// ValueFunc derives a sensor's value from the raw JSON payload of its
// endpoint. Implementations must treat the payload as read-only and
// return nil when the value cannot be derived this cycle.
//
// The returned value should be a JSON-friendly scalar (number, string or
// bool). A nil return is suppressed when the sensor already holds a
// meaningful value; see the package documentation for the exact rule.
type ValueFunc func(data map[string]any) any

// AttributesFunc derives extra display attributes from the raw JSON
// payload of a sensor's endpoint. The returned map is merged into the
// sensor's existing attributes key by key; a nil return leaves them
// unchanged. Implementations must not mutate the payload.
type AttributesFunc func(data map[string]any) map[string]any

// SensorUpdate is delivered to update callbacks whenever a sensor's
// stored state changes.
type SensorUpdate struct {
	// Key identifies the sensor, e.g. "users" or "library_lib_1_size".
	Key string

	// Name is the sensor's human-readable display name.
	Name string

	// Unit is the sensor's unit of measurement, if any.
	Unit string

	// State is the sensor's current value. Its dynamic type depends on
	// the sensor's derivation function; nil means no value yet.
	State any

	// Attributes holds the sensor's extra display attributes.
	Attributes map[string]any

	// UpdatedAt is when the sensor last accepted a change.
	UpdatedAt time.Time
}
