// Package logging provides the structured logging used across vatfiler.
//
// It wraps Go's log/slog with a small subsystem-oriented API so that every
// record carries a "subsystem" attribute and call sites stay terse.
//
// # Usage
//
//	import "vatfiler/pkg/logging"
//
//	// Text output at INFO level
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	// Or JSON output for log shippers
//	logging.InitWithFormat(logging.LevelDebug, os.Stderr, logging.FormatJSON)
//
//	logging.Info("Server", "Listening on %s", addr)
//	logging.Debug("OAuth", "Token expires at %s", expiry)
//	logging.Warn("Config", "No config.yaml found, using defaults")
//	logging.Error("Receipts", err, "Failed to append receipt")
//
// # Audit Logging
//
// Security-relevant actions (token stored, refreshed or cleared, VAT return
// submitted) are recorded with Audit:
//
//	logging.Audit(logging.AuditEvent{
//	    Action:  "token_refresh",
//	    Outcome: "success",
//	})
//
// Audit events are logged at INFO level (WARN on failure) with an [AUDIT]
// prefix for easy filtering.
//
// Access tokens, refresh tokens and client secrets must never be passed to
// any logging function. Use Truncate for identifiers that only need to be
// recognisable.
package logging
