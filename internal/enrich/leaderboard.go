package enrich

import (
	"sort"

	"cinewrap/internal/stats"
)

type tally struct {
	name   string
	image  string
	count  int
	seq    int
	movies []stats.SimpleMovie
}

// leaderboard accumulates counts per name. It belongs to exactly one run.
type leaderboard struct {
	entries map[string]*tally
}

func newLeaderboard() *leaderboard {
	return &leaderboard{entries: make(map[string]*tally)}
}

func (lb *leaderboard) add(name, image string, movie stats.SimpleMovie) {
	entry, ok := lb.entries[name]
	if !ok {
		entry = &tally{name: name, seq: len(lb.entries)}
		lb.entries[name] = entry
	}
	entry.count++
	entry.movies = append(entry.movies, movie)
	if entry.image == "" && image != "" {
		entry.image = image
	}
}

// top returns the n highest counts, ties in first-seen order. The returned
// items share nothing with the leaderboard.
func (lb *leaderboard) top(n int) []stats.EnrichedItem {
	ranked := make([]*tally, 0, len(lb.entries))
	for _, entry := range lb.entries {
		ranked = append(ranked, entry)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].seq < ranked[j].seq
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	out := make([]stats.EnrichedItem, 0, len(ranked))
	for _, entry := range ranked {
		out = append(out, stats.EnrichedItem{
			Name:   entry.name,
			Count:  entry.count,
			Image:  entry.image,
			Movies: append([]stats.SimpleMovie(nil), entry.movies...),
		})
	}
	return out
}
