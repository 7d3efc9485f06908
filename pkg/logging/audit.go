package logging

import (
	"context"
	"log/slog"
)

// auditPrefix marks audit records so log aggregation can filter them.
const auditPrefix = "[AUDIT] "

// truncateLength is how many characters of an identifier Truncate keeps.
const truncateLength = 8

// AuditEvent describes a security-relevant action such as storing or
// refreshing OAuth tokens or submitting a VAT return.
type AuditEvent struct {
	// Action is a short verb_noun identifier, e.g. "token_refresh".
	Action string
	// Outcome is "success" or "failure".
	Outcome string
	// Subject identifies what the action applied to (a VRN, a file path).
	Subject string
	// Details carries optional free-form context. Never put secrets here.
	Details string
	// Err is set when Outcome is "failure".
	Err error
}

// Audit logs an audit event at INFO level (WARN for failures).
func Audit(event AuditEvent) {
	logger := current()
	if logger == nil {
		return
	}

	level := slog.LevelInfo
	if event.Outcome == "failure" {
		level = slog.LevelWarn
	}

	attrs := []slog.Attr{
		slog.String("subsystem", "Audit"),
		slog.String("action", event.Action),
		slog.String("outcome", event.Outcome),
	}
	if event.Subject != "" {
		attrs = append(attrs, slog.String("subject", event.Subject))
	}
	if event.Details != "" {
		attrs = append(attrs, slog.String("details", event.Details))
	}
	if event.Err != nil {
		attrs = append(attrs, slog.String("error", event.Err.Error()))
	}

	logger.LogAttrs(context.Background(), level, auditPrefix+event.Action, attrs...)
}

// Truncate shortens an identifier for log output, keeping the first
// characters and appending "...". Short values are returned unchanged.
func Truncate(id string) string {
	if len(id) <= truncateLength {
		return id
	}
	return id[:truncateLength] + "..."
}
