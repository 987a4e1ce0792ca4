package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"cinewrap/internal/persona"
	"cinewrap/internal/stats"
)

func renderReport(w io.Writer, s *stats.Stats, p *persona.Result) {
	fmt.Fprintf(w, "Your %d in film\n\n", s.Year)

	rows := [][]string{
		{"Films watched", strconv.Itoa(s.TotalWatched)},
		{"Unique films", strconv.Itoa(s.UniqueFilmsCount)},
		{"Rewatches", strconv.Itoa(s.RewatchCount)},
		{"Hours watched", strconv.Itoa(s.TotalRuntimeHours)},
		{"Average rating", formatAverage(s.AverageRating)},
		{"Films per week", strconv.FormatFloat(s.MoviesPerWeekAvg, 'f', 1, 64)},
		{"Top month", s.TopMonth},
		{"Top weekday", s.TopDayOfWeek},
		{"Longest streak", pluralDays(s.LongestStreak)},
		{"Busiest day", formatBusiest(s.BusiestDay)},
		{"First film", s.FirstFilm},
		{"Last film", s.LastFilm},
	}
	fmt.Fprintln(w, renderTable([]string{"Summary", ""}, rows, []columnAlignment{alignLeft, alignRight}))

	months := make([][]string, 0, len(s.MonthlyDistribution))
	for _, m := range s.MonthlyDistribution {
		months = append(months, []string{m.Month, strconv.Itoa(m.Count)})
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, renderTable([]string{"Month", "Films"}, months, []columnAlignment{alignLeft, alignRight}))

	if len(s.RatingDistribution) > 0 {
		ratings := make([][]string, 0, len(s.RatingDistribution))
		for _, r := range s.RatingDistribution {
			ratings = append(ratings, []string{r.Rating, strconv.Itoa(r.Count)})
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, renderTable([]string{"Rating", "Films"}, ratings, []columnAlignment{alignLeft, alignRight}))
	}

	if len(s.DecadeDistribution) > 0 {
		decades := make([][]string, 0, len(s.DecadeDistribution))
		for _, d := range s.DecadeDistribution {
			decades = append(decades, []string{d.Decade, strconv.Itoa(d.Count)})
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, renderTable([]string{"Decade", "Films"}, decades, []columnAlignment{alignLeft, alignRight}))
	}

	if len(s.TopRatedFilms) > 0 {
		top := make([][]string, 0, len(s.TopRatedFilms))
		for _, f := range s.TopRatedFilms {
			top = append(top, []string{f.Name, f.Year, f.Rating})
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, renderTable([]string{"Top rated", "Year", "Rating"}, top, []columnAlignment{alignLeft, alignLeft, alignRight}))
	}

	renderLeaderboard(w, "Actor", s.TopActors)
	renderLeaderboard(w, "Director", s.TopDirectors)
	renderLeaderboard(w, "Genre", s.TopGenres)

	if p != nil {
		fmt.Fprintf(w, "\n%s\n%s\n", p.Title, p.Description)
	}
}

func renderLeaderboard(w io.Writer, label string, items []stats.EnrichedItem) {
	if len(items) == 0 {
		return
	}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{item.Name, strconv.Itoa(item.Count), sampleTitles(item.Movies, 3)})
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, renderTable([]string{label, "Films", "Includes"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft}))
}

func sampleTitles(movies []stats.SimpleMovie, limit int) string {
	titles := make([]string, 0, limit)
	for i, m := range movies {
		if i == limit {
			titles = append(titles, fmt.Sprintf("+%d more", len(movies)-limit))
			break
		}
		titles = append(titles, m.Title)
	}
	return strings.Join(titles, ", ")
}

func formatAverage(avg float64) string {
	if avg <= 0 {
		return "-"
	}
	return strconv.FormatFloat(avg, 'f', -1, 64)
}

func formatBusiest(day stats.DateCount) string {
	if day.Date == "" {
		return "-"
	}
	return fmt.Sprintf("%s (%d)", day.Date, day.Count)
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
