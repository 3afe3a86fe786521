package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVs(t *testing.T) {
	t.Parallel()

	out := sanitizeKVs([]interface{}{
		"email", "learner@example.com",
		"learner_id", "5d0c9b1e-3f55-4f2f-b0d2-0c1b2a3d4e5f",
		"course_id", "c1",
		"dangling",
	})
	if len(out) != 7 {
		t.Fatalf("len: got %d want 7", len(out))
	}
	if out[1] != "[REDACTED]" {
		t.Fatalf("email: got %v", out[1])
	}
	if s, _ := out[3].(string); !strings.HasPrefix(s, "hash:") || len(s) != len("hash:")+12 {
		t.Fatalf("learner_id: got %v", out[3])
	}
	if out[5] != "c1" {
		t.Fatalf("course_id: got %v", out[5])
	}
	if out[6] != "dangling" {
		t.Fatalf("dangling key: got %v", out[6])
	}
}

func TestSanitizeValueJWT(t *testing.T) {
	t.Parallel()

	jwtish := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJhYmMxMjMifQ.sig"
	if got := sanitizeValue("note", jwtish); got != "[REDACTED]" {
		t.Fatalf("got %v", got)
	}
	nested := sanitizeValue("meta", map[string]interface{}{"api_key": "x", "plan": "basic"})
	m, ok := nested.(map[string]interface{})
	if !ok {
		t.Fatalf("nested type %T", nested)
	}
	if m["api_key"] != "[REDACTED]" || m["plan"] != "basic" {
		t.Fatalf("nested: %v", m)
	}
}
