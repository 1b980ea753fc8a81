// Package logging assembles structured slog loggers shared by the daemon and
// CLI.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes attribute helpers plus standardized field keys so components
// emit log lines with a consistent shape. A no-op logger is provided for
// tests and wiring code that cannot fail.
package logging
