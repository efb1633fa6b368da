// Package abs implements the HTTP client for the Audiobookshelf REST
// API: bearer-token authentication, the startup reachability probe and
// JSON endpoint fetches with per-request timeouts.
package abs
