package service

import "encoding/json"

// Accessors over the decoded payload form (schema.DecodeBody keeps
// numbers as json.Number).

func getString(m map[string]any, key string) (string, bool) {
	if m == nil {
		return "", false
	}
	s, ok := m[key].(string)
	return s, ok
}

// mustString is for fields the schema already guarantees; missing means
// a classifier bug, and the empty string surfaces it in the row.
func mustString(m map[string]any, key string) string {
	s, _ := getString(m, key)
	return s
}

func getObject(m map[string]any, key string) (map[string]any, bool) {
	if m == nil {
		return nil, false
	}
	o, ok := m[key].(map[string]any)
	return o, ok
}

func getNumber(m map[string]any, key string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	switch v := m[key].(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	default:
		return 0, false
	}
}

func getInt(m map[string]any, key string) (int64, bool) {
	if m == nil {
		return 0, false
	}
	switch v := m[key].(type) {
	case json.Number:
		i, err := v.Int64()
		return i, err == nil
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

func getBool(m map[string]any, key string) (bool, bool) {
	if m == nil {
		return false, false
	}
	b, ok := m[key].(bool)
	return b, ok
}

func getStringSlice(m map[string]any, key string) []string {
	result := []string{}
	if m == nil {
		return result
	}
	items, ok := m[key].([]any)
	if !ok {
		return result
	}
	for _, item := range items {
		if s, ok := item.(string); ok {
			result = append(result, s)
		}
	}
	return result
}

// marshalObject re-encodes an optional sub-object for a jsonb column,
// nil when absent.
func marshalObject(m map[string]any, key string) json.RawMessage {
	o, ok := getObject(m, key)
	if !ok {
		return nil
	}
	b, err := json.Marshal(o)
	if err != nil {
		return nil
	}
	return json.RawMessage(b)
}
