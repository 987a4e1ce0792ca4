package stats

import (
	"regexp"
	"strings"

	"cinewrap/internal/letterboxd"
)

var fourDigits = regexp.MustCompile(`\d{4}`)

type yearStrategy func(letterboxd.DiaryEntry) string

// releaseYearStrategies are tried in order; the first non-empty value wins.
var releaseYearStrategies = []yearStrategy{
	namedYearField,
	caseInsensitiveYearKey,
	thirdColumn,
}

// RecoverReleaseYear finds a film's release year even when the export renamed
// or reordered the Year column, and returns the first four-digit run of the
// surfaced value ("1999 (director's cut)" yields "1999"). It returns "" when
// nothing usable is found.
func RecoverReleaseYear(entry letterboxd.DiaryEntry) string {
	for _, strategy := range releaseYearStrategies {
		if raw := strategy(entry); raw != "" {
			return fourDigits.FindString(raw)
		}
	}
	return ""
}

func namedYearField(entry letterboxd.DiaryEntry) string {
	if entry.Year != "" {
		return entry.Year
	}
	return entry.Source.Get(letterboxd.ColumnYear)
}

func caseInsensitiveYearKey(entry letterboxd.DiaryEntry) string {
	for i := 0; i < entry.Source.Len(); i++ {
		key, value, _ := entry.Source.At(i)
		if strings.EqualFold(strings.TrimSpace(key), "year") && value != "" {
			return value
		}
	}
	return ""
}

func thirdColumn(entry letterboxd.DiaryEntry) string {
	_, value, ok := entry.Source.At(2)
	if !ok {
		return ""
	}
	return value
}

// extractYear applies the four-digit rule to a plain year string.
func extractYear(raw string) string {
	return fourDigits.FindString(raw)
}
