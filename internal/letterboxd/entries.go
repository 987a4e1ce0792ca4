package letterboxd

import "cinewrap/internal/csvrecords"

// Column names used by Letterboxd exports.
const (
	ColumnDate        = "Date"
	ColumnName        = "Name"
	ColumnYear        = "Year"
	ColumnURI         = "Letterboxd URI"
	ColumnRating      = "Rating"
	ColumnRewatch     = "Rewatch"
	ColumnTags        = "Tags"
	ColumnWatchedDate = "Watched Date"
)

// DiaryEntry is one logged viewing. Rewatches appear as separate entries.
type DiaryEntry struct {
	Date        string
	WatchedDate string
	Name        string
	Year        string
	URI         string
	Rating      string
	Rewatch     string
	Tags        string

	// Source keeps the raw row so year recovery can consult other columns.
	Source csvrecords.Record
}

// IsRewatch reports whether the row is flagged as a rewatch.
func (e DiaryEntry) IsRewatch() bool {
	return e.Rewatch == "Yes"
}

// RatingEntry is one row of the ratings export.
type RatingEntry struct {
	Date   string `json:"Date"`
	Name   string `json:"Name"`
	Year   string `json:"Year"`
	URI    string `json:"Letterboxd URI"`
	Rating string `json:"Rating"`
}

// DiaryEntryFromRecord maps a parsed row to a diary entry. The watched date
// falls back to the log date when the export has no Watched Date column value.
func DiaryEntryFromRecord(rec csvrecords.Record) DiaryEntry {
	watched := rec.Get(ColumnWatchedDate)
	if watched == "" {
		watched = rec.Get(ColumnDate)
	}
	return DiaryEntry{
		Date:        rec.Get(ColumnDate),
		WatchedDate: watched,
		Name:        rec.Get(ColumnName),
		Year:        rec.Get(ColumnYear),
		URI:         rec.Get(ColumnURI),
		Rating:      rec.Get(ColumnRating),
		Rewatch:     rec.Get(ColumnRewatch),
		Tags:        rec.Get(ColumnTags),
		Source:      rec,
	}
}

// RatingEntryFromRecord maps a parsed row to a rating entry.
func RatingEntryFromRecord(rec csvrecords.Record) RatingEntry {
	return RatingEntry{
		Date:   rec.Get(ColumnDate),
		Name:   rec.Get(ColumnName),
		Year:   rec.Get(ColumnYear),
		URI:    rec.Get(ColumnURI),
		Rating: rec.Get(ColumnRating),
	}
}
