package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Serialize converts a record into its untyped form. It is the inverse of the
// Decode functions: decoding the result yields an equal record. Numbers come
// back as float64 and timestamps as RFC 3339 strings, matching decoded JSON.
// Nil slices and maps are emitted as empty lists and objects.
func Serialize(record any) (map[string]any, error) {
	payload, err := json.Marshal(withEmptyCollections(record))
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("record is not an object: %w", err)
	}
	return out, nil
}

// MarshalIndent renders a record as indented JSON without HTML escaping.
// Nil slices and maps are rendered empty, as in Serialize.
func MarshalIndent(record any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(withEmptyCollections(record)); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
