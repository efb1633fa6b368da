package entity

import (
	"log/slog"
	"sync"
	"time"

	"github.com/shelfwatch/shelfwatch/internal/coordinator"
	"github.com/shelfwatch/shelfwatch/internal/store"
)

// connectivityName is the display name of the connectivity entity.
const connectivityName = "Audiobookshelf Connected"

// Connectivity is the binary entity reporting whether the last refresh
// cycle reached the server. It reads the synthesised connectivity record
// from the coordinator's cache.
type Connectivity struct {
	logger *slog.Logger

	mu        sync.RWMutex
	on        bool
	updatedAt time.Time
}

// NewConnectivity creates a Connectivity entity that starts off.
func NewConnectivity(logger *slog.Logger) *Connectivity {
	return &Connectivity{logger: logger}
}

// Update reads the connectivity record from the refreshed cache. The
// entity turns on only for a record whose "success" field is the boolean
// true; a missing record, a missing field or a value of another type all
// mean off. Shape problems are absorbed here, nothing else is.
func (c *Connectivity) Update(data map[string]map[string]any) {
	on := false
	record, ok := data[coordinator.ConnectivityKey]
	switch {
	case !ok || record == nil:
		c.logger.Debug("no connectivity record in refreshed data")
	default:
		value, ok := record["success"]
		if !ok {
			c.logger.Debug("connectivity record has no success field")
		} else if b, isBool := value.(bool); isBool {
			on = b
		} else {
			c.logger.Debug("connectivity success field is not a boolean",
				"value", value)
		}
	}

	c.mu.Lock()
	c.on = on
	c.updatedAt = time.Now()
	c.mu.Unlock()
}

// IsOn reports whether the last observed cycle reached the server.
func (c *Connectivity) IsOn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.on
}

// Snapshot returns the entity's current state in storage form, with
// "on" or "off" as the state value.
func (c *Connectivity) Snapshot() store.SensorState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	state := "off"
	if c.on {
		state = "on"
	}
	return store.SensorState{
		Key:       coordinator.ConnectivityKey,
		Name:      connectivityName,
		State:     state,
		UpdatedAt: c.updatedAt,
	}
}
