package stats

import "cinewrap/internal/letterboxd"

// DefaultMinutesPerFilm is the runtime estimate used for TotalRuntimeHours.
// Exports carry no runtime so this is an approximation.
const DefaultMinutesPerFilm = 105

// SimpleMovie is the minimal film reference carried by every bucket.
type SimpleMovie struct {
	Title  string `json:"title"`
	Year   string `json:"year"`
	Rating string `json:"rating,omitempty"`
}

// DailyEntryDetail describes one viewing on the calendar.
type DailyEntryDetail struct {
	Name   string `json:"name"`
	Year   string `json:"year"`
	Rating string `json:"rating"`
	URI    string `json:"uri"`
}

// Bucket holds a running count and the films that contributed to it. Count
// always equals len(Movies).
type Bucket struct {
	Count  int           `json:"count"`
	Movies []SimpleMovie `json:"movies"`
}

func (b *Bucket) add(m SimpleMovie) {
	b.Count++
	b.Movies = append(b.Movies, m)
}

type RatingBucket struct {
	Rating string `json:"rating"`
	Bucket
}

type MonthBucket struct {
	Month string `json:"month"`
	Bucket
}

type DayBucket struct {
	Day string `json:"day"`
	Bucket
}

type DecadeBucket struct {
	Decade string `json:"decade"`
	Bucket
}

// DateCount is one heatmap cell.
type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// EnrichedItem is one actor, director, or genre leaderboard entry.
type EnrichedItem struct {
	Name   string        `json:"name"`
	Count  int           `json:"count"`
	Image  string        `json:"image,omitempty"`
	Movies []SimpleMovie `json:"movies"`
}

// Stats is the aggregate for one year. It is not mutated after Compute
// returns; WithEnrichment produces a copy.
type Stats struct {
	Year              int     `json:"year"`
	TotalWatched      int     `json:"totalWatched"`
	TotalRuntimeHours int     `json:"totalRuntimeHours"`
	TopMonth          string  `json:"topMonth"`
	TopDayOfWeek      string  `json:"topDayOfWeek"`
	AverageRating     float64 `json:"averageRating"`
	MoviesPerWeekAvg  float64 `json:"moviesPerWeekAvg"`

	RatingDistribution    []RatingBucket                `json:"ratingDistribution"`
	MonthlyDistribution   []MonthBucket                 `json:"monthlyDistribution"`
	DayOfWeekDistribution []DayBucket                   `json:"dayOfWeekDistribution"`
	DecadeDistribution    []DecadeBucket                `json:"decadeDistribution"`
	DailyActivity         []DateCount                   `json:"dailyActivity"`
	DailyEntries          map[string][]DailyEntryDetail `json:"dailyEntries"`

	LongestStreak int       `json:"longestStreak"`
	BusiestDay    DateCount `json:"busiestDay"`
	FirstFilm     string    `json:"firstFilm"`
	LastFilm      string    `json:"lastFilm"`

	RewatchCount     int           `json:"rewatchCount"`
	RewatchedFilms   []SimpleMovie `json:"rewatchedFilms"`
	UniqueFilmsCount int           `json:"uniqueFilmsCount"`

	TopRatedFilms []letterboxd.RatingEntry `json:"topRatedFilms"`
	AllFilms      []SimpleMovie            `json:"allFilms"`

	TopActors    []EnrichedItem `json:"topActors,omitempty"`
	TopDirectors []EnrichedItem `json:"topDirectors,omitempty"`
	TopGenres    []EnrichedItem `json:"topGenres,omitempty"`
}

// WithEnrichment returns a shallow copy of s with the leaderboards replaced.
// Nil slices leave the existing leaderboard in place.
func (s *Stats) WithEnrichment(actors, directors, genres []EnrichedItem) *Stats {
	if s == nil {
		return nil
	}
	clone := *s
	if actors != nil {
		clone.TopActors = actors
	}
	if directors != nil {
		clone.TopDirectors = directors
	}
	if genres != nil {
		clone.TopGenres = genres
	}
	return &clone
}
