// Package server provides the HTTP server for the shelfwatch dashboard and API.
//
// This package is internal to shelfwatch and handles all HTTP concerns:
//
//   - Dashboard serving: Serves the embedded HTML/CSS/JS dashboard at "/"
//   - REST API: JSON endpoints at "/api/sensors" and "/api/health"
//   - Server-Sent Events: Real-time sensor updates at "/api/sse"
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
//
// Users of the shelfwatch library should not need to interact with this
// package directly. The server is started automatically by [shelfwatch.ShelfWatch.Start].
package server
