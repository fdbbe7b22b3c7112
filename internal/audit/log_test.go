package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"meridianbank.org/internal/auth"
	"meridianbank.org/internal/obs"
)

func TestLogEvent(t *testing.T) {
	logger := obs.Logger()
	original := logger.Writer()
	logger.SetFlags(0)
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(original)

	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-123")
	ctx = auth.ContextWithClaim(ctx, auth.Claim{
		IdentityID: 42,
		Role:       auth.RoleAdmin,
		Kind:       auth.KindAccess,
		ExpiresAt:  time.Now().Add(time.Minute),
	})

	if err := LogEvent(ctx, "audit.test", map[string]any{"foo": "bar"}); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	line := buf.String()
	if line == "" {
		t.Fatal("expected log output")
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["type"] != "audit" {
		t.Fatalf("unexpected type: %v", entry["type"])
	}
	if entry["event"] != "audit.test" {
		t.Fatalf("unexpected event: %v", entry["event"])
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("unexpected request id: %v", entry["request_id"])
	}
	if entry["identity_id"] != float64(42) {
		t.Fatalf("unexpected identity id: %v", entry["identity_id"])
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok || fields["foo"] != "bar" {
		t.Fatalf("fields missing or incorrect: %v", entry["fields"])
	}
}

// Callers trace this error rather than dropping it; it must surface.
func TestLogEventReportsMarshalFailure(t *testing.T) {
	logger := obs.Logger()
	original := logger.Writer()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(original)

	err := LogEvent(context.Background(), "audit.test", map[string]any{
		"bad": make(chan int),
	})
	if err == nil {
		t.Fatal("expected error for unmarshalable field")
	}
	if buf.Len() != 0 {
		t.Fatalf("no entry should be written on failure, got %q", buf.String())
	}
}

func TestLogRecorderRecord(t *testing.T) {
	logger := obs.Logger()
	original := logger.Writer()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(original)

	id := int64(7)
	if err := (LogRecorder{}).Record(context.Background(), &id, "auth.login.failed", "bob@example.com"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["event"] != "auth.login.failed" {
		t.Fatalf("unexpected event: %v", entry["event"])
	}
	fields := entry["fields"].(map[string]any)
	if fields["identity_id"] != float64(7) || fields["detail"] != "bob@example.com" {
		t.Fatalf("unexpected fields: %v", fields)
	}
}
