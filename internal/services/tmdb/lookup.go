package tmdb

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"cinewrap/internal/enrich"
	"cinewrap/internal/metrics"
)

var _ enrich.Lookup = (*Client)(nil)

// FindMovie returns the best search match for title, preferring the given
// release year and retrying without it when the filtered search is empty.
// It returns nil when nothing matches.
func (c *Client) FindMovie(ctx context.Context, title, year string) (*Result, error) {
	releaseYear, _ := strconv.Atoi(strings.TrimSpace(year))
	resp, err := c.SearchMovieWithOptions(ctx, title, SearchOptions{Year: releaseYear})
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 && releaseYear > 0 {
		if resp, err = c.SearchMovieWithOptions(ctx, title, SearchOptions{}); err != nil {
			return nil, err
		}
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	first := resp.Results[0]
	return &first, nil
}

// LookupMovie resolves a film to genres, top-billed cast, and directors.
// (nil, nil) means TMDB has no match.
func (c *Client) LookupMovie(ctx context.Context, title, year string) (*enrich.Metadata, error) {
	meta, err := c.lookupMovie(ctx, title, year)
	metrics.RecordMetadataLookup("tmdb", meta != nil, err)
	return meta, err
}

func (c *Client) lookupMovie(ctx context.Context, title, year string) (*enrich.Metadata, error) {
	match, err := c.FindMovie(ctx, title, year)
	if err != nil || match == nil {
		return nil, err
	}
	details, err := c.GetMovieDetails(ctx, match.ID)
	if err != nil {
		return nil, err
	}
	return c.metadataFromDetails(details), nil
}

func (c *Client) metadataFromDetails(details *MovieDetails) *enrich.Metadata {
	meta := &enrich.Metadata{}
	for _, g := range details.Genres {
		if name := strings.TrimSpace(g.Name); name != "" {
			meta.Genres = append(meta.Genres, name)
		}
	}

	cast := append([]CastMember(nil), details.Credits.Cast...)
	sort.SliceStable(cast, func(i, j int) bool { return cast[i].Order < cast[j].Order })
	if len(cast) > c.maxCast {
		cast = cast[:c.maxCast]
	}
	for _, member := range cast {
		meta.Cast = append(meta.Cast, enrich.Person{
			Name:  member.Name,
			Image: c.imageURL(profileSize, member.ProfilePath),
		})
	}

	seen := map[string]struct{}{}
	for _, member := range details.Credits.Crew {
		if member.Job != "Director" {
			continue
		}
		if _, dup := seen[member.Name]; dup {
			continue
		}
		seen[member.Name] = struct{}{}
		meta.Directors = append(meta.Directors, enrich.Person{
			Name:  member.Name,
			Image: c.imageURL(profileSize, member.ProfilePath),
		})
	}
	return meta
}

// PosterURL returns the poster image URL of the first search match, or ""
// when the match has no poster.
func (c *Client) PosterURL(ctx context.Context, title, year string) (string, error) {
	match, err := c.FindMovie(ctx, title, year)
	if err != nil || match == nil {
		return "", err
	}
	return c.imageURL(posterSize, match.PosterPath), nil
}

func (c *Client) imageURL(size, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.imageBaseURL + "/" + size + path
}
