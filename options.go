package shelfwatch

import (
	"errors"
	"log/slog"
	"time"
)

// swConfig holds mutable state during ShelfWatch construction.
type swConfig struct {
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

// Option is a function that configures a [ShelfWatch] instance during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
//
// Built-in options: [WithServer], [WithScanInterval], [WithPort],
// [WithTitle], [WithStateFile], [WithSensor], [WithSensors].
type Option func(*swConfig) error

// WithServer sets the Audiobookshelf server address and API token.
//
// The URL may omit the scheme, in which case http:// is assumed. The token
// is sent as a bearer token on every request. This option is required for
// [New] to succeed.
//
// Example:
//
//	sw, err := shelfwatch.New(
//	    shelfwatch.WithServer("http://audiobookshelf.local:13378", os.Getenv("ABS_API_KEY")),
//	)
//
// Returns an error if either value is empty.
func WithServer(rawURL, apiKey string) Option {
	return func(cfg *swConfig) error {
		if rawURL == "" || apiKey == "" {
			return errors.New("server url and api key are required")
		}
		cfg.serverURL = rawURL
		cfg.apiKey = apiKey
		return nil
	}
}

// WithScanInterval sets how often the server is polled.
//
// Each refresh cycle fetches every distinct sensor endpoint once. Defaults
// to 5 minutes if not specified, matching the polling cadence the server
// comfortably sustains.
//
// Example:
//
//	sw, err := shelfwatch.New(
//	    shelfwatch.WithServer(url, key),
//	    shelfwatch.WithScanInterval(30 * time.Second),
//	)
//
// Returns an error if the duration is zero or negative.
func WithScanInterval(d time.Duration) Option {
	return func(cfg *swConfig) error {
		if d <= 0 {
			return errors.New("scan interval must be positive")
		}
		cfg.scanInterval = d
		return nil
	}
}

// WithPort sets the HTTP port for the dashboard server.
//
// The dashboard UI and API will be available at http://localhost:<port>.
// Defaults to 8080 if not specified.
//
// Example:
//
//	sw, err := shelfwatch.New(
//	    shelfwatch.WithServer(url, key),
//	    shelfwatch.WithPort(9090),
//	)
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *swConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithTitle sets the dashboard title displayed in the browser tab and header.
//
// If not specified, defaults to "ShelfWatch".
//
// Example:
//
//	sw, err := shelfwatch.New(
//	    shelfwatch.WithServer(url, key),
//	    shelfwatch.WithTitle("Living Room Audiobookshelf"),
//	)
func WithTitle(title string) Option {
	return func(cfg *swConfig) error {
		cfg.title = title
		return nil
	}
}

// WithStateFile sets a path where sensor states are persisted.
//
// When set, sensor states are written to the file after each successful
// refresh cycle and read back on startup, so restorable sensors show their
// last known values before the first cycle completes. Sensors backed by
// the authorize endpoint are never restored; their payload contains
// credentials that must come fresh from the server.
//
// Example:
//
//	sw, err := shelfwatch.New(
//	    shelfwatch.WithServer(url, key),
//	    shelfwatch.WithStateFile("/var/lib/shelfwatch/states.json"),
//	)
func WithStateFile(path string) Option {
	return func(cfg *swConfig) error {
		cfg.stateFile = path
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the ShelfWatch instance.
//
// This allows SDK consumers to control where logs are written and in what
// format. If not specified, [slog.Default] is used.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
//	sw, err := shelfwatch.New(
//	    shelfwatch.WithServer(url, key),
//	    shelfwatch.WithLogger(logger),
//	)
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *swConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithSensor adds a custom sensor alongside the built-in set.
//
// A custom sensor with the same key as a built-in one replaces it. The
// sensor's endpoint joins the refresh cycle; endpoints shared with other
// sensors are still fetched only once per cycle.
//
// Example:
//
//	backups, err := shelfwatch.NewSensor("backups", "api/backups",
//	    shelfwatch.WithSensorName("Audiobookshelf Backups"),
//	    shelfwatch.WithValue(shelfwatch.Field("total")),
//	)
//	sw, err := shelfwatch.New(
//	    shelfwatch.WithServer(url, key),
//	    shelfwatch.WithSensor(backups),
//	)
func WithSensor(s Sensor) Option {
	return func(cfg *swConfig) error {
		cfg.sensors = append(cfg.sensors, s)
		return nil
	}
}

// WithSensors adds multiple custom sensors at once.
//
// Equivalent to calling [WithSensor] multiple times.
func WithSensors(sensors ...Sensor) Option {
	return func(cfg *swConfig) error {
		cfg.sensors = append(cfg.sensors, sensors...)
		return nil
	}
}

// WithUpdateCallback registers a function to be called on every sensor update.
//
// The callback receives a [SensorUpdate] containing the sensor's key, display
// name, unit, derived value and attributes.
//
// Multiple callbacks may be registered by calling WithUpdateCallback multiple
// times; they execute in registration order.
//
// IMPORTANT: Callbacks must be non-blocking. Long-running operations should
// dispatch work to a separate goroutine. Blocking callbacks will delay
// subsequent sensor update processing.
//
// Callbacks are invoked synchronously from a single goroutine. Panics within
// callbacks are recovered and logged; they do not crash the refresh loop.
//
// Example:
//
//	sw, err := shelfwatch.New(
//	    shelfwatch.WithServer(url, key),
//	    shelfwatch.WithUpdateCallback(func(u shelfwatch.SensorUpdate) {
//	        if u.Key == "sessions" {
//	            log.Printf("open sessions: %v", u.State)
//	        }
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithUpdateCallback(cb func(SensorUpdate)) Option {
	return func(cfg *swConfig) error {
		if cb == nil {
			return nil // no-op for nil callback (safe to call)
		}
		cfg.updateCallbacks = append(cfg.updateCallbacks, cb)
		return nil
	}
}
