package inventory

import "regexp"

var placeholderRegexp = regexp.MustCompile(`^\$\{([^}]*)\}$`)

// Expand returns a copy of value with every string that is exactly ${NAME}
// replaced by env[NAME] ("" when unset). Strings that merely contain a
// placeholder are left alone. Maps and slices are copied, never mutated.
func Expand(value interface{}, env Env) interface{} {
	switch v := value.(type) {
	case string:
		if m := placeholderRegexp.FindStringSubmatch(v); m != nil {
			return env.Get(m[1])
		}
		return v
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, val := range v {
			out[k] = Expand(val, env)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, val := range v {
			out[i] = Expand(val, env)
		}
		return out
	default:
		return v
	}
}
