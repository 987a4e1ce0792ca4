package stats

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"cinewrap/internal/letterboxd"
)

const (
	maxRating   = 5.0
	topRatedCap = 5
)

// ratedFilm pairs a rating row with its parsed value and release year.
type ratedFilm struct {
	entry       letterboxd.RatingEntry
	releaseYear string
	value       float64
	numeric     bool
}

type ratingAnalysis struct {
	average      float64
	distribution []RatingBucket
	topRated     []letterboxd.RatingEntry
}

// ratingsForYear picks the ratings log when present, otherwise synthesizes
// one from rated diary rows, and keeps the rows dated in year.
func ratingsForYear(diary []letterboxd.DiaryEntry, ratings []letterboxd.RatingEntry, year int, strict bool, yearText string) []ratedFilm {
	var source []ratedFilm
	if len(ratings) > 0 {
		source = make([]ratedFilm, 0, len(ratings))
		for _, r := range ratings {
			source = append(source, ratedFilm{entry: r, releaseYear: extractYear(r.Year)})
		}
	} else {
		for _, d := range diary {
			if strings.TrimSpace(d.Rating) == "" {
				continue
			}
			source = append(source, ratedFilm{
				entry: letterboxd.RatingEntry{
					Date:   d.WatchedDate,
					Name:   d.Name,
					Year:   d.Year,
					URI:    d.URI,
					Rating: d.Rating,
				},
				releaseYear: RecoverReleaseYear(d),
			})
		}
	}

	out := make([]ratedFilm, 0, len(source))
	for _, rf := range source {
		date, ok := ParseDate(rf.entry.Date)
		if !ok || date.Year() != year {
			continue
		}
		if strict && rf.releaseYear != yearText {
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(rf.entry.Rating), 64)
		rf.value = value
		rf.numeric = err == nil && !math.IsNaN(value) && !math.IsInf(value, 0)
		out = append(out, rf)
	}
	return out
}

func analyzeRatings(films []ratedFilm) ratingAnalysis {
	var (
		sum     float64
		count   int
		buckets = make(map[float64]*RatingBucket)
		numeric = make([]ratedFilm, 0, len(films))
	)
	for _, rf := range films {
		if !rf.numeric {
			continue
		}
		sum += rf.value
		count++
		numeric = append(numeric, rf)
		bucket, ok := buckets[rf.value]
		if !ok {
			bucket = &RatingBucket{Rating: strconv.FormatFloat(rf.value, 'f', -1, 64)}
			buckets[rf.value] = bucket
		}
		bucket.add(SimpleMovie{Title: rf.entry.Name, Year: rf.releaseYear, Rating: rf.entry.Rating})
	}

	analysis := ratingAnalysis{
		distribution: make([]RatingBucket, 0, len(buckets)),
		topRated:     selectTopRated(numeric),
	}
	if count > 0 {
		analysis.average = roundTo(sum/float64(count), 2)
	}

	values := make([]float64, 0, len(buckets))
	for value := range buckets {
		values = append(values, value)
	}
	sort.Float64s(values)
	for _, value := range values {
		analysis.distribution = append(analysis.distribution, *buckets[value])
	}
	return analysis
}

// selectTopRated returns every five-star film sorted by title when there are
// more than five of them, otherwise the five highest ratings with ties kept
// in input order.
func selectTopRated(numeric []ratedFilm) []letterboxd.RatingEntry {
	var perfect []letterboxd.RatingEntry
	for _, rf := range numeric {
		if rf.value == maxRating {
			perfect = append(perfect, rf.entry)
		}
	}
	if len(perfect) > topRatedCap {
		sort.SliceStable(perfect, func(i, j int) bool {
			a, b := strings.ToLower(perfect[i].Name), strings.ToLower(perfect[j].Name)
			if a != b {
				return a < b
			}
			return perfect[i].Name < perfect[j].Name
		})
		return perfect
	}

	ranked := make([]ratedFilm, len(numeric))
	copy(ranked, numeric)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].value > ranked[j].value
	})
	if len(ranked) > topRatedCap {
		ranked = ranked[:topRatedCap]
	}
	out := make([]letterboxd.RatingEntry, 0, len(ranked))
	for _, rf := range ranked {
		out = append(out, rf.entry)
	}
	return out
}
