package enrich

import (
	"context"

	"cinewrap/internal/stats"
)

// Person is a cast or crew member with an optional portrait URL.
type Person struct {
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// Metadata is what a Lookup knows about one film.
type Metadata struct {
	Genres    []string `json:"genres,omitempty"`
	Cast      []Person `json:"cast,omitempty"`
	Directors []Person `json:"directors,omitempty"`
}

// Lookup resolves a film to metadata. A nil result with a nil error means the
// film is unknown; callers treat errors the same way.
type Lookup interface {
	LookupMovie(ctx context.Context, title, year string) (*Metadata, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, title, year string) (*Metadata, error)

// LookupMovie calls f.
func (f LookupFunc) LookupMovie(ctx context.Context, title, year string) (*Metadata, error) {
	return f(ctx, title, year)
}

// Snapshot is the leaderboard state after a batch. Snapshots are never
// modified after emission.
type Snapshot struct {
	RunID        string               `json:"runId"`
	TopActors    []stats.EnrichedItem `json:"topActors"`
	TopDirectors []stats.EnrichedItem `json:"topDirectors"`
	TopGenres    []stats.EnrichedItem `json:"topGenres"`
	Processed    int                  `json:"processed"`
	Total        int                  `json:"total"`
	Done         bool                 `json:"done"`
}

// Apply returns a copy of s carrying the snapshot's leaderboards.
func (snap Snapshot) Apply(s *stats.Stats) *stats.Stats {
	return s.WithEnrichment(
		nonNil(snap.TopActors),
		nonNil(snap.TopDirectors),
		nonNil(snap.TopGenres),
	)
}

func nonNil(items []stats.EnrichedItem) []stats.EnrichedItem {
	if items == nil {
		return []stats.EnrichedItem{}
	}
	return items
}
