package protocol

import (
	"bytes"
	"encoding/json"
	"strconv"
)

var jsonNull = []byte("null")

// isNull reports whether raw is the JSON null literal (or absent).
func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), jsonNull)
}

// decodeTuple decodes raw as a JSON array of exactly n elements.
func decodeTuple(raw json.RawMessage, n int) ([]json.RawMessage, bool) {
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return nil, false
	}
	if len(parts) != n {
		return nil, false
	}
	return parts, true
}

// decodeString decodes a JSON string.
func decodeString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// decodeScalar decodes a JSON string, number or boolean into its attribute
// string form. Numbers keep their literal text.
func decodeScalar(raw json.RawMessage) (string, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", false
	}
	switch v := v.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}
