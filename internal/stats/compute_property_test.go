package stats

import (
	"strconv"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"cinewrap/internal/letterboxd"
)

// diaryFromSeeds turns generated integers into 2024 diary rows with varied
// dates, release years, and rewatch flags.
func diaryFromSeeds(seeds []int) []letterboxd.DiaryEntry {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	diary := make([]letterboxd.DiaryEntry, 0, len(seeds))
	for i, seed := range seeds {
		date := start.AddDate(0, 0, seed%366).Format(dateLayout)
		entry := watched(date, "Film "+strconv.Itoa(i), strconv.Itoa(1870+seed%170))
		if seed%3 == 0 {
			entry.Rewatch = "Yes"
		}
		if seed%4 == 0 {
			entry.Rating = strconv.FormatFloat(float64(seed%10+1)/2, 'f', -1, 64)
		}
		diary = append(diary, entry)
	}
	return diary
}

func TestProperty_BucketConsistency(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 150
	properties := gopter.NewProperties(parameters)

	seeds := gen.SliceOf(gen.IntRange(0, 100000)).SuchThat(func(v []int) bool {
		return len(v) > 0 && len(v) <= 200
	})

	properties.Property("every bucket count equals its movie list length", prop.ForAll(
		func(seeds []int) bool {
			s, ok := Compute(diaryFromSeeds(seeds), nil, Options{Year: 2024, Now: fixedNow})
			if !ok {
				return false
			}
			monthSum, daySum, decadeSum := 0, 0, 0
			for _, b := range s.MonthlyDistribution {
				if b.Count != len(b.Movies) {
					return false
				}
				monthSum += b.Count
			}
			for _, b := range s.DayOfWeekDistribution {
				if b.Count != len(b.Movies) {
					return false
				}
				daySum += b.Count
			}
			for _, b := range s.DecadeDistribution {
				if b.Count != len(b.Movies) {
					return false
				}
				decadeSum += b.Count
			}
			for _, b := range s.RatingDistribution {
				if b.Count != len(b.Movies) {
					return false
				}
			}
			return monthSum == s.TotalWatched && daySum == s.TotalWatched && decadeSum <= s.TotalWatched
		},
		seeds,
	))

	properties.Property("unique plus rewatch equals total", prop.ForAll(
		func(seeds []int) bool {
			s, ok := Compute(diaryFromSeeds(seeds), nil, Options{Year: 2024, Now: fixedNow})
			return ok && s.UniqueFilmsCount+s.RewatchCount == s.TotalWatched && s.TotalWatched == len(seeds)
		},
		seeds,
	))

	properties.Property("daily activity covers every viewing inside the year", prop.ForAll(
		func(seeds []int) bool {
			s, ok := Compute(diaryFromSeeds(seeds), nil, Options{Year: 2024, Now: fixedNow})
			if !ok {
				return false
			}
			sum := 0
			for i, day := range s.DailyActivity {
				if day.Date[:4] != "2024" || len(s.DailyEntries[day.Date]) != day.Count {
					return false
				}
				if i > 0 && s.DailyActivity[i-1].Date >= day.Date {
					return false
				}
				sum += day.Count
			}
			return sum == s.TotalWatched &&
				s.LongestStreak >= 1 &&
				s.LongestStreak <= len(s.DailyActivity) &&
				s.BusiestDay.Count >= 1
		},
		seeds,
	))

	properties.TestingRun(t)
}
