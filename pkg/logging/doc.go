// Package logging provides structured logging for levermcp on top of the
// standard slog package.
//
// All log entries carry a subsystem identifier (OAuth, Relay, Lever, Gmail,
// Gate, MCP, HTTP, Bootstrap) so output can be filtered by component. Token
// values are never logged; relay session identifiers are truncated with
// TruncateSessionID before logging.
//
// Initialize once at startup:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stdout)
//	logging.Info("Bootstrap", "starting on %s", addr)
//	logging.Error("Gmail", err, "send failed")
package logging
