package letterboxd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cinewrap/internal/csvrecords"
	"cinewrap/internal/services"
)

var (
	// ErrInvalidDiary marks a diary export without a Date or Watched Date column.
	ErrInvalidDiary = errors.New("invalid diary CSV")
	// ErrInvalidRatings marks a ratings export without a Rating column.
	ErrInvalidRatings = errors.New("invalid ratings CSV")
)

// LoadDiary parses a diary export. The first record must carry a Date or
// Watched Date value.
func LoadDiary(r io.Reader) ([]DiaryEntry, error) {
	records, err := csvrecords.ParseReader(r)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "letterboxd", "load diary", "Failed to read diary export", err)
	}
	if len(records) == 0 || (records[0].Get(ColumnDate) == "" && records[0].Get(ColumnWatchedDate) == "") {
		return nil, services.Wrap(services.ErrValidation, "letterboxd", "load diary", "Invalid Diary CSV", ErrInvalidDiary)
	}
	entries := make([]DiaryEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, DiaryEntryFromRecord(rec))
	}
	return entries, nil
}

// LoadRatings parses a ratings export. The first record must carry a Rating value.
func LoadRatings(r io.Reader) ([]RatingEntry, error) {
	records, err := csvrecords.ParseReader(r)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "letterboxd", "load ratings", "Failed to read ratings export", err)
	}
	if len(records) == 0 || records[0].Get(ColumnRating) == "" {
		return nil, services.Wrap(services.ErrValidation, "letterboxd", "load ratings", "Invalid Ratings CSV", ErrInvalidRatings)
	}
	entries := make([]RatingEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, RatingEntryFromRecord(rec))
	}
	return entries, nil
}

// LoadDiaryFile opens path and loads it as a diary export.
func LoadDiaryFile(path string) ([]DiaryEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open diary: %w", err)
	}
	defer file.Close()
	return LoadDiary(file)
}

// LoadRatingsFile opens path and loads it as a ratings export. An empty path
// returns no entries.
func LoadRatingsFile(path string) ([]RatingEntry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ratings: %w", err)
	}
	defer file.Close()
	return LoadRatings(file)
}
