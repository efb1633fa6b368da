package shelfwatch

import (
	"strings"
	"unicode"
)

// CamelToSnake recursively converts the keys of a decoded JSON value from
// camelCase to snake_case. Maps are rebuilt with converted keys, list
// elements are walked in place, and scalars pass through untouched. Only
// keys are converted; values keep their original form.
func CamelToSnake(v any) any {
	switch t := v.(type) {
	case map[string]any:
		converted := make(map[string]any, len(t))
		for key, value := range t {
			converted[snakeCase(key)] = CamelToSnake(value)
		}
		return converted
	case []any:
		converted := make([]any, len(t))
		for i, value := range t {
			converted[i] = CamelToSnake(value)
		}
		return converted
	default:
		return v
	}
}

// snakeCase inserts an underscore before every uppercase letter, lowercases
// the result, and strips any leading underscores: "mediaType" becomes
// "media_type", "Upper" becomes "upper", and "_id" becomes "id".
func snakeCase(key string) string {
	var b strings.Builder
	b.Grow(len(key) + 4)
	for _, r := range key {
		if unicode.IsUpper(r) {
			b.WriteByte('_')
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return strings.TrimLeft(b.String(), "_")
}
