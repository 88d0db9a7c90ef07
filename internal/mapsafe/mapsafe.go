// Package mapsafe reads typed values out of loosely typed parameter maps
// such as those decoded from YAML or JSON.
package mapsafe

// Get retrieves a typed value from a map[string]any.
// Numeric values are converted between int and float64 since decoders
// disagree on which one they produce. If the key is missing or the value
// cannot be converted, defaultValue is returned.
func Get[T any](m map[string]any, key string, defaultValue T) T {
	val, ok := m[key]
	if !ok || val == nil {
		return defaultValue
	}

	switch any(defaultValue).(type) {
	case int:
		switch x := val.(type) {
		case int:
			return any(x).(T)
		case int64:
			return any(int(x)).(T)
		case float64:
			return any(int(x)).(T)
		}
	case float64:
		switch x := val.(type) {
		case float64:
			return any(x).(T)
		case int:
			return any(float64(x)).(T)
		case int64:
			return any(float64(x)).(T)
		}
	}

	if v, ok := val.(T); ok {
		return v
	}

	return defaultValue
}

// Merge returns a new map holding base overlaid with override.
// Neither input is modified.
func Merge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}

	return out
}
