package actions_test

import (
	"encoding/json"
	"testing"
)

// testFormData renders opaque form data the way the HTTP layer would see it.
func testFormData(t *testing.T, data any) map[string]any {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal form data: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode form data: %v", err)
	}
	return out
}
