// Package logging assembles structured slog loggers and attribute helpers used
// across hopper.
//
// It owns the console and JSON handlers, level parsing, and output plumbing
// (stdout, stderr, or append-only files). Components derive their logger with
// NewComponentLogger so every line carries a "component" field, and warnings
// go through WarnWithContext so they state an event type, a hint, and the
// impact. NewNop returns a logger for tests and wiring code that has none.
package logging
