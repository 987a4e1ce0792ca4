// Package services defines shared utilities consumed by the external
// integrations (TMDB, the persona LLM) and the surfaces that call them.
//
// Key responsibilities:
//   - Context helpers that stamp enrichment run IDs and API request
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (validation, configuration, external, transient) so the CLI and the API
//     can report them consistently.
//
// Client packages live in subdirectories (tmdb, llm).
package services
