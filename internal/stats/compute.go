package stats

import (
	"math"
	"sort"
	"strconv"
	"time"

	"cinewrap/internal/letterboxd"
)

var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

var dayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// Options controls a Compute call.
type Options struct {
	// Year is the analysis year. Zero selects the most recent year in the diary.
	Year int
	// Strict keeps only films released in Year.
	Strict bool
	// MinutesPerFilm overrides DefaultMinutesPerFilm when positive.
	MinutesPerFilm int
	// Now supplies the clock for the decade sanity bound. Defaults to time.Now.
	Now func() time.Time
}

// viewing is a retained diary row with its parsed date and recovered year.
type viewing struct {
	entry       letterboxd.DiaryEntry
	date        time.Time
	key         string
	releaseYear string
}

func (v viewing) movie() SimpleMovie {
	return SimpleMovie{Title: v.entry.Name, Year: v.releaseYear, Rating: v.entry.Rating}
}

// Compute aggregates the diary and ratings for one year. It returns ok=false
// when no diary rows remain after year and strict filtering.
func Compute(diary []letterboxd.DiaryEntry, ratings []letterboxd.RatingEntry, opts Options) (*Stats, bool) {
	year, ok := SelectYear(diary, opts.Year)
	if !ok {
		return nil, false
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	minutes := opts.MinutesPerFilm
	if minutes <= 0 {
		minutes = DefaultMinutesPerFilm
	}
	yearText := strconv.Itoa(year)

	viewings := filterViewings(diary, year, opts.Strict, yearText)
	if len(viewings) == 0 {
		return nil, false
	}

	total := len(viewings)
	s := &Stats{
		Year:              year,
		TotalWatched:      total,
		TotalRuntimeHours: int(math.Round(float64(total*minutes) / 60)),
		MoviesPerWeekAvg:  roundTo(float64(total)/52, 1),
		DailyEntries:      make(map[string][]DailyEntryDetail),
		AllFilms:          make([]SimpleMovie, 0, total),
		RewatchedFilms:    []SimpleMovie{},
	}

	var months [12]Bucket
	var days [7]Bucket
	decades := make(map[int]*Bucket)
	dateCounts := make(map[string]int)
	latestDecade := now().Year() + 2

	for _, v := range viewings {
		movie := v.movie()
		s.AllFilms = append(s.AllFilms, movie)
		months[v.date.Month()-1].add(movie)
		days[v.date.Weekday()].add(movie)
		dateCounts[v.key]++
		s.DailyEntries[v.key] = append(s.DailyEntries[v.key], DailyEntryDetail{
			Name:   v.entry.Name,
			Year:   v.releaseYear,
			Rating: v.entry.Rating,
			URI:    v.entry.URI,
		})
		if release, err := strconv.Atoi(v.releaseYear); err == nil && release > 1880 && release <= latestDecade {
			decade := release / 10 * 10
			bucket, ok := decades[decade]
			if !ok {
				bucket = &Bucket{}
				decades[decade] = bucket
			}
			bucket.add(movie)
		}
		if v.entry.IsRewatch() {
			s.RewatchCount++
			s.RewatchedFilms = append(s.RewatchedFilms, movie)
		}
	}
	s.UniqueFilmsCount = total - s.RewatchCount

	s.MonthlyDistribution = make([]MonthBucket, len(monthNames))
	for i, name := range monthNames {
		s.MonthlyDistribution[i] = MonthBucket{Month: name, Bucket: normalizeBucket(months[i])}
	}
	s.DayOfWeekDistribution = make([]DayBucket, len(dayNames))
	for i, name := range dayNames {
		s.DayOfWeekDistribution[i] = DayBucket{Day: name, Bucket: normalizeBucket(days[i])}
	}
	s.TopMonth = topLabel(monthNames[:], months[:])
	s.TopDayOfWeek = topLabel(dayNames[:], days[:])

	decadeKeys := make([]int, 0, len(decades))
	for decade := range decades {
		decadeKeys = append(decadeKeys, decade)
	}
	sort.Ints(decadeKeys)
	s.DecadeDistribution = make([]DecadeBucket, 0, len(decadeKeys))
	for _, decade := range decadeKeys {
		s.DecadeDistribution = append(s.DecadeDistribution, DecadeBucket{
			Decade: strconv.Itoa(decade) + "s",
			Bucket: *decades[decade],
		})
	}

	dateKeys := make([]string, 0, len(dateCounts))
	for key := range dateCounts {
		dateKeys = append(dateKeys, key)
	}
	sort.Strings(dateKeys)
	s.DailyActivity = make([]DateCount, 0, len(dateKeys))
	sortedDays := make([]time.Time, 0, len(dateKeys))
	for _, key := range dateKeys {
		count := dateCounts[key]
		s.DailyActivity = append(s.DailyActivity, DateCount{Date: key, Count: count})
		// Earliest date wins a tie because keys are ascending and the
		// comparison is strict.
		if count > s.BusiestDay.Count {
			s.BusiestDay = DateCount{Date: key, Count: count}
		}
		day, _ := time.Parse(dateLayout, key)
		sortedDays = append(sortedDays, day)
	}
	s.LongestStreak = longestStreak(sortedDays)

	s.FirstFilm = viewings[0].entry.Name
	s.LastFilm = viewings[len(viewings)-1].entry.Name

	analysis := analyzeRatings(ratingsForYear(diary, ratings, year, opts.Strict, yearText))
	s.AverageRating = analysis.average
	s.RatingDistribution = analysis.distribution
	s.TopRatedFilms = analysis.topRated

	return s, true
}

// filterViewings keeps rows watched in year (and released in year when
// strict), sorted chronologically with input order preserved on equal dates.
func filterViewings(diary []letterboxd.DiaryEntry, year int, strict bool, yearText string) []viewing {
	out := make([]viewing, 0, len(diary))
	for _, entry := range diary {
		date, ok := ParseDate(entry.WatchedDate)
		if !ok || date.Year() != year {
			continue
		}
		release := RecoverReleaseYear(entry)
		if strict && release != yearText {
			continue
		}
		out = append(out, viewing{
			entry:       entry,
			date:        date,
			key:         date.Format(dateLayout),
			releaseYear: release,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].date.Before(out[j].date)
	})
	return out
}

func topLabel(labels []string, buckets []Bucket) string {
	best := -1
	for i, bucket := range buckets {
		if bucket.Count > 0 && (best < 0 || bucket.Count > buckets[best].Count) {
			best = i
		}
	}
	if best < 0 {
		return "None"
	}
	return labels[best]
}

// normalizeBucket replaces a nil film list with an empty one so JSON output
// always carries an array.
func normalizeBucket(b Bucket) Bucket {
	if b.Movies == nil {
		b.Movies = []SimpleMovie{}
	}
	return b
}

func roundTo(value float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(value*scale) / scale
}
