package store

import "time"

// SensorState represents the current state of one sensor in storage.
//
// SensorState is the storage representation of a derived sensor value,
// optimized for JSON serialization (used by the REST API, SSE and the
// snapshot file). It is decoupled from the entity layer's internal types
// to allow independent evolution.
type SensorState struct {
	// Key uniquely identifies the sensor, e.g. "library_lib_1_size".
	Key string `json:"key"`

	// Name is the sensor's display name.
	Name string `json:"name"`

	// Unit is the sensor's unit of measurement, if any.
	Unit string `json:"unit,omitempty"`

	// State is the derived value. nil means the sensor has no value yet.
	// After a round trip through JSON, numeric states decode as float64.
	State any `json:"state"`

	// Attributes contains extra display attributes derived from the
	// sensor's endpoint payload.
	Attributes map[string]any `json:"attributes,omitempty"`

	// UpdatedAt is when the sensor last accepted a change.
	UpdatedAt time.Time `json:"updated_at"`
}

// Store defines the interface for storing and subscribing to sensor
// state updates.
//
// Store implementations must be safe for concurrent access. The pub/sub
// mechanism allows real-time updates to be pushed to connected clients
// (e.g., via Server-Sent Events).
type Store interface {
	// Update stores a new sensor state and notifies all subscribers.
	// The state is keyed by Key, so subsequent updates replace previous
	// values.
	Update(state SensorState)

	// GetAll returns all currently stored sensor states, sorted by key.
	// The returned slice is a snapshot; modifications do not affect the
	// store.
	GetAll() []SensorState

	// Subscribe returns a channel that receives state updates.
	// The returned channel has a buffer; slow consumers may miss updates.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan SensorState

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan SensorState)
}
