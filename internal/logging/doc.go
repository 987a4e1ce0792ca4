// Package logging assembles structured slog loggers and formatting helpers used
// across cinewrap commands and the API server.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so enrichment runs and API requests tag
// their log lines with run and correlation IDs. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
package logging
