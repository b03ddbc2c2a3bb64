package config

import (
	"maps"
	"slices"
	"strings"
)

// secrets are the dot keys whose values never appear in full on the CLI.
var secrets = []string{"llm.api_key", "slack.token"}

// IsSecretKey reports whether key holds a credential.
func IsSecretKey(key string) bool {
	return slices.Contains(secrets, key)
}

// Mask hides all but the last four characters of a secret.
func Mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) > 4 {
		s = s[len(s)-4:]
	}
	return "***" + s
}

// MaskSecrets returns a copy of flat with every secret value masked.
func MaskSecrets(flat map[string]any) map[string]any {
	out := maps.Clone(flat)
	for _, key := range secrets {
		if s, ok := out[key].(string); ok {
			out[key] = Mask(s)
		}
	}
	return out
}

// Flatten maps nested config objects to dot keys, so
// {"slack": {"token": "x"}} becomes {"slack.token": "x"}.
// Empty objects produce no keys.
func Flatten(m map[string]any) map[string]any {
	out := make(map[string]any)
	walk(m, nil, func(path []string, v any) {
		out[strings.Join(path, ".")] = v
	})
	return out
}

func walk(m map[string]any, path []string, visit func([]string, any)) {
	for k, v := range m {
		p := append(path[:len(path):len(path)], k)
		if child, ok := v.(map[string]any); ok {
			walk(child, p, visit)
			continue
		}
		visit(p, v)
	}
}

// Unflatten is the inverse of Flatten.
func Unflatten(flat map[string]any) map[string]any {
	out := make(map[string]any)
	for k, v := range flat {
		setPath(out, strings.Split(k, "."), v)
	}
	return out
}

// setPath stores v at path inside m, replacing scalars met on the way.
func setPath(m map[string]any, path []string, v any) {
	for _, part := range path[:len(path)-1] {
		child, ok := m[part].(map[string]any)
		if !ok {
			child = make(map[string]any)
			m[part] = child
		}
		m = child
	}
	m[path[len(path)-1]] = v
}
