// Package logging provides structured logging setup for proxystats.
//
// It is a thin layer over log/slog: configuration selects the minimum
// level and output format (json or text), and Setup installs the resulting
// logger as the process default. Components receive a *slog.Logger by
// injection and scope themselves with With("component", ...).
package logging
