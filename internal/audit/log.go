package audit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"meridianbank.org/internal/auth"
	"meridianbank.org/internal/obs"
)

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID attaches the request identifier to the context for audit
// logging.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the audit request id from context if present.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// LogEvent writes an audit log entry enriched with request and caller
// context.
func LogEvent(ctx context.Context, event string, fields map[string]any) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("event name is required")
	}
	entry := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"type":  "audit",
		"event": event,
	}
	if rid := RequestIDFromContext(ctx); rid != "" {
		entry["request_id"] = rid
	}
	if claim, ok := auth.ClaimFromContext(ctx); ok {
		entry["identity_id"] = claim.IdentityID
	}
	if len(fields) > 0 {
		copyFields := make(map[string]any, len(fields))
		for k, v := range fields {
			copyFields[k] = v
		}
		entry["fields"] = copyFields
	} else {
		entry["fields"] = map[string]any{}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	obs.Logger().Println(string(data))
	return nil
}

// LogRecorder is an auth.AuditRecorder that appends events to the structured
// log. Used when the service runs without a database.
type LogRecorder struct{}

// Record implements auth.AuditRecorder.
func (LogRecorder) Record(ctx context.Context, identityID *int64, action, detail string) error {
	fields := map[string]any{}
	if identityID != nil {
		fields["identity_id"] = *identityID
	}
	if detail != "" {
		fields["detail"] = detail
	}
	return LogEvent(ctx, action, fields)
}

var _ auth.AuditRecorder = LogRecorder{}
