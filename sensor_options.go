package shelfwatch

import "errors"

// sensorConfig holds the intermediate state while building a Sensor.
type sensorConfig struct {
	name       string
	unit       string
	value      ValueFunc
	attributes AttributesFunc
}

// SensorOption configures a Sensor during creation.
type SensorOption func(*sensorConfig) error

// WithSensorName sets the sensor's human-readable display name. When not
// provided, the name defaults to the sensor key.
func WithSensorName(name string) SensorOption {
	return func(cfg *sensorConfig) error {
		if name == "" {
			return errors.New("sensor name cannot be empty")
		}
		cfg.name = name
		return nil
	}
}

// WithUnit sets the sensor's unit of measurement, e.g. "GB" or "hours".
func WithUnit(unit string) SensorOption {
	return func(cfg *sensorConfig) error {
		cfg.unit = unit
		return nil
	}
}

// WithValue sets the function deriving the sensor's value from its
// endpoint payload. A sensor without a value function carries only
// attributes.
func WithValue(fn ValueFunc) SensorOption {
	return func(cfg *sensorConfig) error {
		if fn == nil {
			return errors.New("value function cannot be nil")
		}
		cfg.value = fn
		return nil
	}
}

// WithAttributes sets the function deriving the sensor's display
// attributes from its endpoint payload.
func WithAttributes(fn AttributesFunc) SensorOption {
	return func(cfg *sensorConfig) error {
		if fn == nil {
			return errors.New("attributes function cannot be nil")
		}
		cfg.attributes = fn
		return nil
	}
}
