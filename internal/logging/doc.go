// Package logging builds the slog loggers used across anisync.
//
// Two handler formats are supported: a compact console handler that renders
// "TIME LEVEL component: message key=value" lines, and a JSON handler for
// machine consumption. NewFromConfig tees output to stdout and a log file
// under the configured log directory. NewComponentLogger attaches the
// standardized component attribute; NewNop returns a discard logger for
// tests.
package logging
