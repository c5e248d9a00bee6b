package protocol

import "reflect"

// NormalizeParameters prepares a parameter map for JSON encoding.
//
// Empty or nil keyed containers must reach the server as an explicit empty
// object ({}), never null and never an empty array, because the server's JSON
// parser treats a bare [] as a list value. The normalization recurses into
// nested maps and slices so the rule holds at any depth. Populated values pass
// through structurally unchanged.
func NormalizeParameters(params map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(params))
	for k, v := range params {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case map[string]interface{}:
		return NormalizeParameters(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, e := range val {
			out[i] = normalizeValue(e)
		}
		return out
	}

	// Other map and slice kinds (map[string]string, []string, ...) are walked
	// reflectively so nested empty maps still become {}.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		out := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key, ok := iter.Key().Interface().(string)
			if !ok {
				// Non-string keys cannot be a JSON object; leave as-is and
				// let encoding fail loudly rather than guess.
				return v
			}
			out[key] = normalizeValue(iter.Value().Interface())
		}
		return out
	case reflect.Slice, reflect.Array:
		out := make([]interface{}, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = normalizeValue(rv.Index(i).Interface())
		}
		return out
	default:
		return v
	}
}
