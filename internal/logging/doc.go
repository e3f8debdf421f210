// Package logging assembles the slog loggers used by the perlentaucher CLI.
//
// It owns the console and JSON handlers, optional rotating file output, and
// context helpers that tag log lines with run and entry identifiers. Warnings
// and errors go through WarnWithContext/ErrorWithContext so every line carries
// an event type and a hint for the operator.
package logging
