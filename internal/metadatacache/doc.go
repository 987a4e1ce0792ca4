// Package metadatacache persists film metadata lookups in SQLite so repeated
// enrichment runs over the same export do not hit TMDB again.
//
// Entries are keyed by a case-folded title plus release year. A stored nil
// metadata value records that the provider had no match (a negative entry).
// Entries older than the configured TTL read as misses.
package metadatacache
