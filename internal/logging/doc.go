// Package logging configures slog for the daemon and CLI. It provides a
// console handler for interactive use, a JSON handler for machine
// consumption, and small attribute helpers so other packages do not import
// log/slog directly for common cases.
package logging
