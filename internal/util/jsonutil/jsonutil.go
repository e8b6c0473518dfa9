// Package jsonutil decodes JSON produced by a language model, which may
// arrive wrapped in Markdown code fences or with stray prose around the
// payload.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

var ErrNoJSON = errors.New("jsonutil: no JSON payload found")

// Unmarshal is a compatibility wrapper around UnmarshalFlex.
func Unmarshal(data []byte, v any) error {
	return UnmarshalFlex(data, v)
}

// UnmarshalRaw accepts json.RawMessage directly.
func UnmarshalRaw(raw json.RawMessage, v any) error {
	return UnmarshalFlex([]byte(raw), v)
}

// UnmarshalFlex tries to unmarshal model output into v with best effort:
// 1) Direct unmarshal
// 2) Strip surrounding code fences and unmarshal again
// 3) Extract the outermost JSON object/array and unmarshal that
func UnmarshalFlex(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err == nil {
		return nil
	}
	stripped := StripFence(raw)
	if err := json.Unmarshal(stripped, v); err == nil {
		return nil
	}
	extracted, ok := extractJSON(stripped)
	if !ok {
		return ErrNoJSON
	}
	return json.Unmarshal(extracted, v)
}

// StripFence removes a surrounding Markdown code fence (``` or ```json)
// if present, returning the inner payload. Input without a fence is
// returned trimmed.
func StripFence(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(s, "```") {
		return []byte(s)
	}
	s = strings.TrimPrefix(s, "```")
	// Drop a language tag such as "json" on the fence line.
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		first := strings.TrimSpace(s[:i])
		if first == "" || !strings.ContainsAny(first, "{}[]\"") {
			s = s[i+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return []byte(strings.TrimSpace(s))
}

// extractJSON returns the outermost {...} or [...] span of raw.
func extractJSON(raw []byte) ([]byte, bool) {
	for _, pair := range [][2]byte{{'{', '}'}, {'[', ']'}} {
		start := bytes.IndexByte(raw, pair[0])
		end := bytes.LastIndexByte(raw, pair[1])
		if start >= 0 && end > start {
			return raw[start : end+1], true
		}
	}
	return nil, false
}

// MarshalNoEscape encodes v into JSON without escaping <, >, & into
// unicode sequences, keeping prompt payloads readable for the model.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
