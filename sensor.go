package shelfwatch

import (
	"errors"
	"strings"
)

// Sensor describes one monitored value: which API endpoint supplies its
// raw data and how the value and display attributes are derived from
// that payload. A Sensor is immutable after creation; build custom ones
// with [NewSensor].
type Sensor struct {
	key        string
	endpoint   string
	name       string
	unit       string
	value      ValueFunc
	attributes AttributesFunc
}

// Key returns the sensor's unique identifier.
func (s Sensor) Key() string {
	return s.key
}

// Endpoint returns the API path the sensor's data comes from, relative
// to the server root.
func (s Sensor) Endpoint() string {
	return s.endpoint
}

// Name returns the sensor's human-readable display name.
func (s Sensor) Name() string {
	return s.name
}

// Unit returns the sensor's unit of measurement, if any.
func (s Sensor) Unit() string {
	return s.unit
}

// Value returns the sensor's value derivation function, or nil when the
// sensor only carries attributes.
func (s Sensor) Value() ValueFunc {
	return s.value
}

// Attributes returns the sensor's attribute derivation function, or nil.
func (s Sensor) Attributes() AttributesFunc {
	return s.attributes
}

// NewSensor creates a [Sensor] with the given key, endpoint and options.
//
// key uniquely identifies the sensor across the registry. endpoint is the
// API path the sensor reads from, relative to the server root; a leading
// slash is trimmed. The display name defaults to the key.
//
// Example:
//
//	sensor, err := shelfwatch.NewSensor("backups", "api/backups",
//	    shelfwatch.WithSensorName("Audiobookshelf Backups"),
//	    shelfwatch.WithUnit("backups"),
//	    shelfwatch.WithValue(func(data map[string]any) any {
//	        backups, ok := data["backups"].([]any)
//	        if !ok {
//	            return nil
//	        }
//	        return len(backups)
//	    }),
//	)
func NewSensor(key, endpoint string, opts ...SensorOption) (Sensor, error) {
	if key == "" {
		return Sensor{}, errors.New("sensor key cannot be empty")
	}
	endpoint = strings.TrimPrefix(endpoint, "/")
	if endpoint == "" {
		return Sensor{}, errors.New("sensor endpoint cannot be empty")
	}

	cfg := &sensorConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Sensor{}, err
		}
	}

	name := cfg.name
	if name == "" {
		name = key
	}

	return Sensor{
		key:        key,
		endpoint:   endpoint,
		name:       name,
		unit:       cfg.unit,
		value:      cfg.value,
		attributes: cfg.attributes,
	}, nil
}
