// Package main hosts the cinewrap CLI entrypoint and command graph.
//
// The Cobra-based command tree turns Letterboxd exports into a year-in-review
// report on the terminal (or as JSON), optionally enriched with TMDB cast,
// director, and genre leaderboards, and can serve the same data over HTTP.
// It centralizes configuration resolution, logger construction, and
// collaborator wiring (TMDB client, metadata cache, LLM client) so
// subcommands only deal with flags and output.
//
// Keep this package lean: add functionality to the internal packages first,
// then surface it through commands or flags here.
package main
