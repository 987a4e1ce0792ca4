// Package tmdb wraps the subset of The Movie Database v3 API cinewrap needs:
// movie search, movie details with credits, and poster lookup.
//
// All HTTP calls pass through a circuit breaker so a struggling provider
// fails fast instead of stalling every enrichment batch. LookupMovie adapts
// the client to the enrichment Lookup contract.
package tmdb
