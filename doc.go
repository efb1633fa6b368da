// Package shelfwatch provides a lightweight, embeddable dashboard for
// watching an Audiobookshelf media server in real-time.
//
// ShelfWatch is designed as an SDK-first library, allowing developers to
// programmatically configure and deploy server watchers as part of their
// applications. It follows functional programming principles with immutable
// types, pure functions, and composable configuration via the functional
// options pattern.
//
// # Quick Start
//
// Connect to a server and start the dashboard with graceful shutdown:
//
//	sw, _ := shelfwatch.New(shelfwatch.WithServer("http://audiobookshelf.local:13378", apiKey))
//
//	// Set up graceful shutdown on SIGINT/SIGTERM
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	sw.Start(ctx) // blocks until context is cancelled
//
// # Configuration
//
// ShelfWatch uses the functional options pattern for configuration:
//
//	sw, err := shelfwatch.New(
//	    shelfwatch.WithServer("http://audiobookshelf.local:13378", apiKey),
//	    shelfwatch.WithScanInterval(time.Minute),
//	    shelfwatch.WithPort(9090),
//	    shelfwatch.WithStateFile("/var/lib/shelfwatch/states.json"),
//	)
//
// Custom sensors can be added alongside the built-in set:
//
//	backups, err := shelfwatch.NewSensor("backups", "api/backups",
//	    shelfwatch.WithSensorName("Audiobookshelf Backups"),
//	    shelfwatch.WithUnit("backups"),
//	    shelfwatch.WithValue(shelfwatch.Field("total")),
//	)
//	sw, err := shelfwatch.New(
//	    shelfwatch.WithServer(url, apiKey),
//	    shelfwatch.WithSensor(backups),
//	)
//
// # Sensors
//
// Sensors derive their values from the raw endpoint payloads using
// derivation functions. Several built-in derivations are provided:
//
//   - [ActiveUsers]: Counts active user accounts, excluding automation accounts
//   - [OpenSessions]: Counts open listening sessions
//   - [LibraryCount]: Counts configured libraries
//   - [TotalSizeGB], [TotalItems], [TotalDurationHours]: Per-library statistics
//   - [Field]: Extracts a value from a JSON payload using dot notation
//   - [Passthrough]: Exposes the whole payload as sensor attributes
//
// Custom derivations can be created by implementing the [ValueFunc] or
// [AttributesFunc] function types.
//
// # Architecture
//
// ShelfWatch consists of several internal packages (under internal/):
//
//   - internal/abs: Audiobookshelf HTTP client with bearer authentication
//   - internal/coordinator: Shared refresh cycle with last-known-good caching
//   - internal/entity: Sensor state derivation and the connectivity sensor
//   - internal/store: In-memory storage with pub/sub for real-time updates
//   - internal/server: HTTP server with REST API and Server-Sent Events
//   - dashboard: Embedded web UI assets
//
// The internal packages are not part of the public API and may change
// without notice. The library is designed for single-binary deployment
// using Go's embed directive for static assets.
package shelfwatch
