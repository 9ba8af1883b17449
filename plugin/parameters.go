package plugin

import "github.com/leeforge/essentials/json"

// Parameters is the opaque install parameter map passed through to the
// install action. A nil map means no parameters were supplied yet.
type Parameters map[string]any

func (p Parameters) Get(key string) (any, bool) {
	v, ok := p[key]
	return v, ok
}

func (p Parameters) GetString(key string, defaultVal string) string {
	v, ok := p[key]
	if !ok {
		return defaultVal
	}
	s, ok := v.(string)
	if !ok {
		return defaultVal
	}
	return s
}

func (p Parameters) GetInt(key string, defaultVal int) int {
	v, ok := p[key]
	if !ok {
		return defaultVal
	}
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	case int64:
		return int(n)
	default:
		return defaultVal
	}
}

func (p Parameters) GetBool(key string, defaultVal bool) bool {
	v, ok := p[key]
	if !ok {
		return defaultVal
	}
	b, ok := v.(bool)
	if !ok {
		return defaultVal
	}
	return b
}

// Bind decodes the parameters into a struct.
func (p Parameters) Bind(target any) error {
	data, err := json.Marshal(map[string]any(p))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

// WithDefaults returns a copy of p with declared defaults filled in for
// missing keys. The receiver is not modified.
func (p Parameters) WithDefaults(specs []ParameterSpec) Parameters {
	out := make(Parameters, len(p)+len(specs))
	for k, v := range p {
		out[k] = v
	}
	for _, s := range specs {
		if _, ok := out[s.Name]; !ok && s.Default != nil {
			out[s.Name] = s.Default
		}
	}
	return out
}
