package service

import (
	"fmt"
	"strconv"
	"strings"
)

// Payload is a decoded JSON object from n8n or the web UI.
type Payload map[string]any

// Str returns the first non-empty string value under keys.
func (p Payload) Str(keys ...string) string {
	for _, k := range keys {
		if v, ok := p[k]; ok && v != nil {
			switch val := v.(type) {
			case string:
				if strings.TrimSpace(val) != "" {
					return val
				}
			case float64, int, int64, bool:
				return fmt.Sprint(val)
			}
		}
	}
	return ""
}

func (p Payload) Int(key string) (int, bool) {
	switch v := p[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	}
	return 0, false
}

func (p Payload) Object(key string) Payload {
	if m, ok := p[key].(map[string]any); ok {
		return Payload(m)
	}
	return nil
}

// Longest returns the longest trimmed string among the given keys.
func (p Payload) Longest(keys ...string) string {
	best := ""
	for _, k := range keys {
		if s, ok := p[k].(string); ok {
			s = strings.TrimSpace(s)
			if len(s) > len(best) {
				best = s
			}
		}
	}
	return best
}

// FirstObject unwraps n8n array payloads to their first element.
func FirstObject(raw any) (Payload, bool) {
	switch v := raw.(type) {
	case map[string]any:
		return Payload(v), true
	case []any:
		if len(v) == 0 {
			return nil, false
		}
		m, ok := v[0].(map[string]any)
		return Payload(m), ok
	}
	return nil, false
}
