package tools

import (
	"bytes"
	"encoding/json"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

type successEnvelope struct {
	OK     bool        `json:"ok"`
	Result interface{} `json:"result"`
}

type failureEnvelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// Envelope is the decoded form of any tool response.
type Envelope struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Success wraps result as {"ok":true,"result":...}
func Success(result interface{}) (json.RawMessage, error) {
	data, err := codec.Marshal(successEnvelope{OK: true, Result: result})
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool result: %w", err)
	}
	return data, nil
}

// Failure wraps message as {"ok":false,"error":"..."}
func Failure(message string) json.RawMessage {
	data, err := codec.Marshal(failureEnvelope{OK: false, Error: message})
	if err != nil {
		// A plain string always encodes; this is only reachable on codec bugs.
		return json.RawMessage(`{"ok":false,"error":"failed to encode error"}`)
	}
	return data
}

// ParseEnvelope decodes a tool response.
func ParseEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := codec.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse envelope: %w", err)
	}
	return &env, nil
}

// DecodeArgs decodes a tool's argument payload into v. Empty payloads leave v
// at its defaults. Unknown keys are ignored.
func DecodeArgs(raw json.RawMessage, v interface{}) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := codec.Unmarshal(trimmed, v); err != nil {
		return &ToolError{
			Category: ErrorCategoryMalformedInput,
			Message:  "argumentsJson was not valid JSON.",
			Cause:    err,
		}
	}
	return nil
}

// HasArg reports whether the payload carries key at all, even with an empty value.
func HasArg(raw json.RawMessage, key string) bool {
	if len(bytes.TrimSpace(raw)) == 0 {
		return false
	}
	return gjson.GetBytes(raw, gjson.Escape(key)).Exists()
}

// OptionalString returns a pointer to the string at key, or nil when the key
// is absent. A JSON null counts as present and empty.
func OptionalString(raw json.RawMessage, key string) *string {
	if !HasArg(raw, key) {
		return nil
	}
	value := gjson.GetBytes(raw, gjson.Escape(key))
	s := ""
	if value.Type != gjson.Null {
		s = value.String()
	}
	return &s
}
