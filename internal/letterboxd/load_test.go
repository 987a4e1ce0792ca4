package letterboxd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cinewrap/internal/services"
)

const diaryCSV = `Date,Name,Year,Letterboxd URI,Rating,Rewatch,Tags,Watched Date
2024-01-03,Heat,1995,https://boxd.it/a,4.5,,,2024-01-02
2024-01-04,"Crouching Tiger, Hidden Dragon",2000,https://boxd.it/b,,Yes,wuxia,
`

func TestLoadDiaryMapsColumns(t *testing.T) {
	entries, err := LoadDiary(strings.NewReader(diaryCSV))
	if err != nil {
		t.Fatalf("LoadDiary returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	first := entries[0]
	if first.WatchedDate != "2024-01-02" || first.Date != "2024-01-03" {
		t.Fatalf("unexpected dates %+v", first)
	}
	if first.Rating != "4.5" || first.URI != "https://boxd.it/a" || first.IsRewatch() {
		t.Fatalf("unexpected first entry %+v", first)
	}
	second := entries[1]
	if second.Name != "Crouching Tiger, Hidden Dragon" {
		t.Fatalf("unexpected title %q", second.Name)
	}
	if second.WatchedDate != "2024-01-04" {
		t.Fatalf("expected watched date to fall back to Date, got %q", second.WatchedDate)
	}
	if !second.IsRewatch() || second.Tags != "wuxia" {
		t.Fatalf("unexpected second entry %+v", second)
	}
	if second.Source.Get("Year") != "2000" {
		t.Fatal("expected source record to be retained")
	}
}

func TestLoadDiaryAcceptsWatchedDateOnly(t *testing.T) {
	entries, err := LoadDiary(strings.NewReader("Watched Date,Name,Year\n2024-05-01,Ran,1985\n"))
	if err != nil {
		t.Fatalf("LoadDiary returned error: %v", err)
	}
	if entries[0].WatchedDate != "2024-05-01" || entries[0].Date != "" {
		t.Fatalf("unexpected entry %+v", entries[0])
	}
}

func TestLoadDiaryRejectsInvalidExports(t *testing.T) {
	tests := map[string]string{
		"empty":          "",
		"header only":    "Date,Name\n",
		"no date column": "Name,Year\nHeat,1995\n",
		"blank date":     "Date,Name\n,Heat\n",
	}
	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadDiary(strings.NewReader(text))
			if !errors.Is(err, ErrInvalidDiary) {
				t.Fatalf("expected ErrInvalidDiary, got %v", err)
			}
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation marker, got %v", err)
			}
		})
	}
}

func TestLoadRatings(t *testing.T) {
	entries, err := LoadRatings(strings.NewReader("Date,Name,Year,Letterboxd URI,Rating\n2024-02-01,Heat,1995,https://boxd.it/a,5\n"))
	if err != nil {
		t.Fatalf("LoadRatings returned error: %v", err)
	}
	if len(entries) != 1 || entries[0].Rating != "5" || entries[0].Name != "Heat" {
		t.Fatalf("unexpected entries %+v", entries)
	}

	_, err = LoadRatings(strings.NewReader("Date,Name\n2024-02-01,Heat\n"))
	if !errors.Is(err, ErrInvalidRatings) || !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrInvalidRatings, got %v", err)
	}
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	diaryPath := filepath.Join(dir, "diary.csv")
	if err := os.WriteFile(diaryPath, []byte(diaryCSV), 0o644); err != nil {
		t.Fatalf("write diary: %v", err)
	}
	entries, err := LoadDiaryFile(diaryPath)
	if err != nil || len(entries) != 2 {
		t.Fatalf("LoadDiaryFile = %d entries, err %v", len(entries), err)
	}

	ratings, err := LoadRatingsFile("")
	if err != nil || ratings != nil {
		t.Fatalf("empty ratings path should be a no-op, got %v %v", ratings, err)
	}
	if _, err := LoadRatingsFile(filepath.Join(dir, "missing.csv")); err == nil {
		t.Fatal("expected error for missing ratings file")
	}
}
