package shelfwatch

import (
	"math"
	"strings"
)

// excludedUsername is the conventional automation account that polls the
// server on behalf of home dashboards. It is skipped when counting active
// users so the count reflects human listeners.
const excludedUsername = "hass"

// redactedPlaceholder replaces user API tokens in derived attributes.
const redactedPlaceholder = "<redacted>"

// ActiveUsers counts the entries of the "users" list that are marked
// active, excluding the automation account. Returns nil when the payload
// carries no users list.
func ActiveUsers(data map[string]any) any {
	users, ok := data["users"].([]any)
	if !ok {
		return nil
	}
	count := 0
	for _, raw := range users {
		user, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		active, _ := user["isActive"].(bool)
		username, _ := user["username"].(string)
		if active && username != excludedUsername {
			count++
		}
	}
	return count
}

// UserAttributes returns a deep copy of the users payload with every user
// token masked, safe to expose as display attributes. The input payload
// is never mutated. Returns nil when the payload carries no users list.
func UserAttributes(data map[string]any) map[string]any {
	rawUsers, ok := data["users"].([]any)
	if !ok {
		return nil
	}
	users := make([]any, 0, len(rawUsers))
	for _, raw := range rawUsers {
		user, ok := raw.(map[string]any)
		if !ok {
			users = append(users, cloneValue(raw))
			continue
		}
		cloned := cloneValue(user).(map[string]any)
		if _, ok := cloned["token"]; ok {
			cloned["token"] = redactedPlaceholder
		}
		users = append(users, cloned)
	}
	return map[string]any{"users": users}
}

// OpenSessions counts the entries of the "openSessions" list. Returns nil
// when the payload carries no such list.
func OpenSessions(data map[string]any) any {
	sessions, ok := data["openSessions"].([]any)
	if !ok {
		return nil
	}
	return len(sessions)
}

// LibraryCount counts the entries of the "libraries" list. Returns nil
// when the payload carries no such list.
func LibraryCount(data map[string]any) any {
	libraries, ok := data["libraries"].([]any)
	if !ok {
		return nil
	}
	return len(libraries)
}

// LibraryDetails maps each library id to its media type and provider for
// display alongside the library count. Entries without an id are skipped.
func LibraryDetails(data map[string]any) map[string]any {
	libraries, ok := data["libraries"].([]any)
	if !ok {
		return nil
	}
	details := make(map[string]any, len(libraries))
	for _, raw := range libraries {
		lib, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		id, ok := lib["id"].(string)
		if !ok || id == "" {
			continue
		}
		details[id] = map[string]any{
			"mediaType": lib["mediaType"],
			"provider":  lib["provider"],
		}
	}
	return details
}

// ServerVersion extracts the server version reported by the authorize
// endpoint. Returns nil when the field is absent.
var ServerVersion ValueFunc = Field("serverSettings.version")

// TotalSizeGB converts the "totalSize" byte count to gigabytes, rounded
// to two decimals. Returns nil when the field is absent or not numeric.
func TotalSizeGB(data map[string]any) any {
	size, ok := asFloat(data["totalSize"])
	if !ok {
		return nil
	}
	return math.Round(size/1024/1024/1024*100) / 100
}

// TotalItems passes the "totalItems" count through unchanged. Returns nil
// when the field is absent.
func TotalItems(data map[string]any) any {
	items, ok := data["totalItems"]
	if !ok {
		return nil
	}
	return items
}

// TotalDurationHours converts the "totalDuration" second count to whole
// hours. Returns nil when the field is absent or not numeric.
func TotalDurationHours(data map[string]any) any {
	seconds, ok := asFloat(data["totalDuration"])
	if !ok {
		return nil
	}
	return math.Round(seconds / 60 / 60)
}

// Field returns a [ValueFunc] that extracts the raw value at a
// dot-separated path, e.g. "serverSettings.version". It returns nil when
// any step of the path is missing or not an object.
func Field(path string) ValueFunc {
	parts := strings.Split(path, ".")
	return func(data map[string]any) any {
		var current any = data
		for _, part := range parts {
			obj, ok := current.(map[string]any)
			if !ok {
				return nil
			}
			current, ok = obj[part]
			if !ok {
				return nil
			}
		}
		return current
	}
}

// Passthrough exposes the whole endpoint payload as display attributes,
// unchanged.
func Passthrough(data map[string]any) map[string]any {
	return data
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// cloneValue deep-copies a decoded JSON value. Scalars are returned
// as-is.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		cp := make(map[string]any, len(t))
		for k, val := range t {
			cp[k] = cloneValue(val)
		}
		return cp
	case []any:
		cp := make([]any, len(t))
		for i, val := range t {
			cp[i] = cloneValue(val)
		}
		return cp
	default:
		return v
	}
}
