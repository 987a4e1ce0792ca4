// Package config loads, normalizes, and validates cinewrap configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, applies a working-directory .env file, and
// honours environment fallbacks such as TMDB_API_KEY and OPENROUTER_API_KEY.
// Missing API keys are not fatal: statistics are computed offline and the
// enrichment and persona features degrade gracefully.
package config
