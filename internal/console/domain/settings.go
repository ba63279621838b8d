package domain

// Settings is a resolver configuration: option key to value. A complete
// Settings carries one value per schema key; values decoded from JSON may
// arrive as float64 or []any and are coerced through the As* helpers.
type Settings map[string]any

// Clone returns a shallow copy. Values are scalars or small lists, so a
// shallow copy is enough for replace-wholesale semantics.
func (s Settings) Clone() Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Bool reads a boolean value, falling back when absent or mistyped.
func (s Settings) Bool(key string, fallback bool) bool {
	if v, ok := s[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return fallback
}

// Int reads an integer value, falling back when absent or mistyped.
func (s Settings) Int(key string, fallback int) int {
	if v, ok := s[key]; ok {
		if n, ok := AsInt(v); ok {
			return n
		}
	}
	return fallback
}

// List reads a string-list value, falling back when absent or mistyped.
func (s Settings) List(key string, fallback []string) []string {
	if v, ok := s[key]; ok {
		if l, ok := AsStringList(v); ok {
			return l
		}
	}
	return fallback
}

// AsInt coerces JSON-shaped numeric values to int. float64 is accepted
// only when it carries an integral value; bool is never an int.
func AsInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// AsStringList coerces []string or a JSON-decoded []any of strings.
func AsStringList(v any) ([]string, bool) {
	switch l := v.(type) {
	case []string:
		return l, true
	case []any:
		out := make([]string, 0, len(l))
		for _, item := range l {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}
