package testutil

import (
	"encoding/json"
	"testing"
)

// MustMarshal encodes v as JSON and fails the test on error.
func MustMarshal(t testing.TB, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal %T: %v", v, err)
	}
	return data
}

// MustObject decodes a JSON object into a generic map and fails the test on error.
// Use it to compare wire payloads without depending on key order.
func MustObject(t testing.TB, data []byte) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	return out
}
