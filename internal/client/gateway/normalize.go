package gateway

import (
	"bytes"
	"encoding/json"
)

// Normalize unwraps the backend's response shapes: a bare array is returned
// as is, an object with a non-null "data" field yields that field, anything
// else is returned unchanged.
func Normalize(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return raw
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return raw
	}
	data, ok := envelope["data"]
	if !ok || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return raw
	}
	return data
}

// apiMessage extracts "message", then "error", from an error payload.
func apiMessage(body []byte) string {
	var payload struct {
		Message any `json:"message"`
		Error   any `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, v := range []any{payload.Message, payload.Error} {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}
