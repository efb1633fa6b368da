package shelfwatch

import (
	"fmt"
	"sort"
)

// API paths backing the built-in sensors, relative to the server root.
const (
	endpointLibraries = "api/libraries"
	endpointUsers     = "api/users"
	endpointSessions  = "api/users/online"
	endpointAuthorize = "api/authorize"
)

// libraryStatsEndpoint returns the stats path shared by all three sensors
// of one library.
func libraryStatsEndpoint(libraryID string) string {
	return fmt.Sprintf("api/libraries/%s/stats", libraryID)
}

// Registry holds the full set of sensor descriptors keyed by sensor key.
// It is assembled once at startup, before the refresh loop starts, and is
// read-only afterwards.
type Registry struct {
	sensors map[string]Sensor
}

// NewRegistry creates a Registry pre-populated with the four built-in
// server sensors: active users, open sessions, library count and server
// version.
func NewRegistry() *Registry {
	r := &Registry{sensors: make(map[string]Sensor)}
	for _, s := range builtinSensors() {
		r.sensors[s.key] = s
	}
	return r
}

func builtinSensors() []Sensor {
	return []Sensor{
		{
			key:        "users",
			endpoint:   endpointUsers,
			name:       "Audiobookshelf Users",
			unit:       "users",
			value:      ActiveUsers,
			attributes: UserAttributes,
		},
		{
			key:        "sessions",
			endpoint:   endpointSessions,
			name:       "Audiobookshelf Open Sessions",
			unit:       "sessions",
			value:      OpenSessions,
			attributes: Passthrough,
		},
		{
			key:        "libraries",
			endpoint:   endpointLibraries,
			name:       "Audiobookshelf Libraries",
			unit:       "libraries",
			value:      LibraryCount,
			attributes: LibraryDetails,
		},
		{
			key:        "server_version",
			endpoint:   endpointAuthorize,
			name:       "Audiobookshelf Server Version",
			unit:       "version",
			value:      ServerVersion,
			attributes: Passthrough,
		},
	}
}

// AddLibrary registers the three stats sensors of one library: total
// size in GB, item count and total duration in hours. All three read the
// library's stats endpoint. Re-adding a library overwrites its sensors,
// so repeated discovery never grows the registry. Libraries without an
// id are ignored.
func (r *Registry) AddLibrary(lib Library) {
	if lib.ID == "" {
		return
	}
	endpoint := libraryStatsEndpoint(lib.ID)
	prefix := fmt.Sprintf("library_%s", lib.ID)

	r.sensors[prefix+"_size"] = Sensor{
		key:        prefix + "_size",
		endpoint:   endpoint,
		name:       fmt.Sprintf("Audiobookshelf %s Size", lib.Name),
		unit:       "GB",
		value:      TotalSizeGB,
		attributes: Passthrough,
	}
	r.sensors[prefix+"_items"] = Sensor{
		key:        prefix + "_items",
		endpoint:   endpoint,
		name:       fmt.Sprintf("Audiobookshelf %s Items", lib.Name),
		unit:       "items",
		value:      TotalItems,
		attributes: Passthrough,
	}
	r.sensors[prefix+"_duration"] = Sensor{
		key:        prefix + "_duration",
		endpoint:   endpoint,
		name:       fmt.Sprintf("Audiobookshelf %s Duration", lib.Name),
		unit:       "hours",
		value:      TotalDurationHours,
		attributes: Passthrough,
	}
}

// Add registers a custom sensor. A sensor with an existing key replaces
// it, which also allows overriding the built-ins.
func (r *Registry) Add(s Sensor) {
	if s.key == "" {
		return
	}
	r.sensors[s.key] = s
}

// Get returns the sensor registered under key.
func (r *Registry) Get(key string) (Sensor, bool) {
	s, ok := r.sensors[key]
	return s, ok
}

// Len returns the number of registered sensors.
func (r *Registry) Len() int {
	return len(r.sensors)
}

// Sensors returns all registered sensors sorted by key.
func (r *Registry) Sensors() []Sensor {
	sensors := make([]Sensor, 0, len(r.sensors))
	for _, s := range r.sensors {
		sensors = append(sensors, s)
	}
	sort.Slice(sensors, func(i, j int) bool { return sensors[i].key < sensors[j].key })
	return sensors
}

// Endpoints returns the distinct set of API paths the registered sensors
// read from, sorted. Sensors sharing an endpoint contribute it once, so
// the refresh loop issues exactly one request per entry.
func (r *Registry) Endpoints() []string {
	seen := make(map[string]struct{}, len(r.sensors))
	endpoints := make([]string, 0, len(r.sensors))
	for _, s := range r.sensors {
		if _, ok := seen[s.endpoint]; ok {
			continue
		}
		seen[s.endpoint] = struct{}{}
		endpoints = append(endpoints, s.endpoint)
	}
	sort.Strings(endpoints)
	return endpoints
}
