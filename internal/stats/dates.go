package stats

import (
	"strings"
	"time"

	"cinewrap/internal/letterboxd"
)

const dateLayout = "2006-01-02"

var watchDateLayouts = []string{
	dateLayout,
	time.RFC3339,
	"2006/01/02",
}

// ParseDate parses an export date. Only the calendar date is kept; times and
// offsets are dropped so weekday and month follow the written date.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range watchDateLayouts {
		parsed, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		y, m, d := parsed.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// SelectYear returns explicit when it is positive. Otherwise it returns the
// calendar year of the most recent parseable watched date, or ok=false when no
// entry has one.
func SelectYear(diary []letterboxd.DiaryEntry, explicit int) (int, bool) {
	if explicit > 0 {
		return explicit, true
	}
	var latest time.Time
	found := false
	for _, entry := range diary {
		parsed, ok := ParseDate(entry.WatchedDate)
		if !ok {
			continue
		}
		if !found || parsed.After(latest) {
			latest = parsed
			found = true
		}
	}
	if !found {
		return 0, false
	}
	return latest.Year(), true
}

// longestStreak walks sorted distinct dates and returns the longest run of
// calendar-adjacent days.
func longestStreak(sorted []time.Time) int {
	best, current := 0, 0
	for i, day := range sorted {
		if i > 0 && day.Sub(sorted[i-1]) == 24*time.Hour {
			current++
		} else {
			current = 1
		}
		if current > best {
			best = current
		}
	}
	return best
}
