// Package logging provides structured logging utilities for lsbug.
//
// It wraps log/slog with project defaults: JSON records on stderr, module and
// version attributes on every record, and source locations when debugging.
// Progress markers meant for the operator ("- Start test case: ...") are not
// logged; they are printed to stdout by the runner.
//
// # Log Levels
//
// Supported log levels (case-insensitive):
//   - DEBUG: detailed diagnostic information with source location
//   - INFO: general informational messages (default)
//   - WARN/WARNING: potentially problematic situations
//   - ERROR: failures requiring attention
//
// The LOG_LEVEL environment variable selects the default level; the --log-level
// and --debug flags override it:
//
//	LOG_LEVEL=debug lsbug 2
//	lsbug --debug 1-3
//
// # Usage
//
//	func main() {
//	    logging.SetDefaultStructuredLoggerWithLevel("lsbug", version, "info")
//	    slog.Info("reading sysfs root", "path", root)
//	}
package logging
