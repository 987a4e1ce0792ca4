package enrich

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"cinewrap/internal/config"
	"cinewrap/internal/logging"
	"cinewrap/internal/metrics"
	"cinewrap/internal/services"
	"cinewrap/internal/stats"
)

// Defaults mirror the metadata provider's comfortable request rate.
const (
	DefaultBatchSize      = 5
	DefaultBatchDelay     = 250 * time.Millisecond
	DefaultMaxCastPerFilm = 5
	DefaultTopActors      = 5
	DefaultTopDirectors   = 5
	DefaultTopGenres      = 8
)

// Options tunes batching and leaderboard sizes. Zero values take defaults;
// a negative BatchDelay disables throttling.
type Options struct {
	BatchSize      int
	BatchDelay     time.Duration
	MaxCastPerFilm int
	TopActors      int
	TopDirectors   int
	TopGenres      int
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.BatchDelay == 0 {
		o.BatchDelay = DefaultBatchDelay
	}
	if o.MaxCastPerFilm <= 0 {
		o.MaxCastPerFilm = DefaultMaxCastPerFilm
	}
	if o.TopActors <= 0 {
		o.TopActors = DefaultTopActors
	}
	if o.TopDirectors <= 0 {
		o.TopDirectors = DefaultTopDirectors
	}
	if o.TopGenres <= 0 {
		o.TopGenres = DefaultTopGenres
	}
	return o
}

// OptionsFromConfig maps the [enrichment] config section. A configured delay
// of zero means no throttling.
func OptionsFromConfig(cfg *config.Config) Options {
	delay := cfg.BatchDelay()
	if delay <= 0 {
		delay = -1
	}
	return Options{
		BatchSize:      cfg.Enrichment.BatchSize,
		BatchDelay:     delay,
		MaxCastPerFilm: cfg.Enrichment.MaxCastPerFilm,
		TopActors:      cfg.Enrichment.TopActors,
		TopDirectors:   cfg.Enrichment.TopDirectors,
		TopGenres:      cfg.Enrichment.TopGenres,
	}
}

// Merger runs enrichment passes. It is stateless between runs and safe for
// concurrent use.
type Merger struct {
	opts   Options
	logger *slog.Logger
	newID  func() string
}

// NewMerger constructs a merger. A nil logger discards output.
func NewMerger(opts Options, logger *slog.Logger) *Merger {
	return &Merger{
		opts:   opts.withDefaults(),
		logger: logging.NewComponentLogger(logger, "enrich"),
		newID:  uuid.NewString,
	}
}

// Options returns the effective options.
func (m *Merger) Options() Options {
	return m.opts
}

// run is the per-call arena holding every mutable table of one pass.
type run struct {
	id        string
	films     []stats.SimpleMovie
	actors    *leaderboard
	directors *leaderboard
	genres    *leaderboard
	processed int
}

type lookupResult struct {
	meta *Metadata
	err  error
}

// Run enriches films batch by batch. onUpdate receives a snapshot after each
// batch on the calling goroutine; cancelled is consulted before each batch.
// Either callback may be nil. The returned snapshot is the last state reached.
func (m *Merger) Run(ctx context.Context, films []stats.SimpleMovie, lookup Lookup, onUpdate func(Snapshot), cancelled func() bool) Snapshot {
	r := &run{
		id:        m.newID(),
		films:     films,
		actors:    newLeaderboard(),
		directors: newLeaderboard(),
		genres:    newLeaderboard(),
	}
	ctx = services.WithRunID(ctx, r.id)
	logger := logging.WithContext(ctx, m.logger)

	metrics.TrackEnrichmentRun(true)
	defer metrics.TrackEnrichmentRun(false)

	if len(films) == 0 || lookup == nil {
		snap := m.snapshot(r)
		snap.Done = true
		emit(onUpdate, snap)
		metrics.RecordEnrichmentRun(true)
		return snap
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if m.opts.BatchDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(m.opts.BatchDelay), 1)
	}
	sampler := logging.NewProgressSampler(25)
	logger.Info("enrichment started",
		logging.String(logging.FieldEventType, "enrichment_started"),
		logging.Int("films", len(films)),
		logging.Int("batch_size", m.opts.BatchSize),
	)

	last := m.snapshot(r)
	for start := 0; start < len(films); start += m.opts.BatchSize {
		if stop(ctx, cancelled) {
			break
		}
		if err := limiter.Wait(ctx); err != nil {
			break
		}
		if stop(ctx, cancelled) {
			break
		}

		end := start + m.opts.BatchSize
		if end > len(films) {
			end = len(films)
		}
		batch := films[start:end]
		began := time.Now()
		results := lookupBatch(ctx, lookup, batch)
		metrics.EnrichmentBatchDuration.Observe(time.Since(began).Seconds())

		for i, film := range batch {
			m.fold(r, film, results[i], logger)
		}
		r.processed = end

		last = m.snapshot(r)
		last.Done = r.processed == len(films)
		if sampler.ShouldLog(r.processed, len(films)) {
			logger.Info("enrichment progress",
				logging.String(logging.FieldEventType, "enrichment_progress"),
				logging.Int("processed", r.processed),
				logging.Int("total", len(films)),
			)
		}
		emit(onUpdate, last)
	}

	metrics.RecordEnrichmentRun(last.Done)
	if !last.Done {
		logger.Info("enrichment cancelled",
			logging.String(logging.FieldEventType, "enrichment_cancelled"),
			logging.Int("processed", r.processed),
			logging.Int("total", len(films)),
		)
	}
	return last
}

// Stream runs the merger on its own goroutine and delivers every snapshot on
// the returned channel, which is closed when the run ends. Cancelling ctx
// stops the run at the next batch boundary.
func (m *Merger) Stream(ctx context.Context, films []stats.SimpleMovie, lookup Lookup) <-chan Snapshot {
	out := make(chan Snapshot, 1)
	go func() {
		defer close(out)
		m.Run(ctx, films, lookup, func(snap Snapshot) {
			select {
			case out <- snap:
			case <-ctx.Done():
			}
		}, nil)
	}()
	return out
}

func lookupBatch(ctx context.Context, lookup Lookup, batch []stats.SimpleMovie) []lookupResult {
	results := make([]lookupResult, len(batch))
	var g errgroup.Group
	for i, film := range batch {
		g.Go(func() error {
			meta, err := lookup.LookupMovie(ctx, film.Title, film.Year)
			results[i] = lookupResult{meta: meta, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (m *Merger) fold(r *run, film stats.SimpleMovie, res lookupResult, logger *slog.Logger) {
	if res.err != nil {
		logger.Debug("metadata lookup failed",
			logging.String(logging.FieldEventType, "metadata_lookup_failed"),
			logging.String("title", film.Title),
			logging.String("year", film.Year),
			logging.Error(res.err),
		)
		return
	}
	if res.meta == nil {
		return
	}
	movie := stats.SimpleMovie{Title: film.Title, Year: film.Year}

	cast := res.meta.Cast
	if len(cast) > m.opts.MaxCastPerFilm {
		cast = cast[:m.opts.MaxCastPerFilm]
	}
	addPeople(r.actors, cast, movie)
	addPeople(r.directors, res.meta.Directors, movie)

	seen := make(map[string]struct{}, len(res.meta.Genres))
	for _, genre := range res.meta.Genres {
		genre = strings.TrimSpace(genre)
		if genre == "" {
			continue
		}
		if _, dup := seen[genre]; dup {
			continue
		}
		seen[genre] = struct{}{}
		r.genres.add(genre, "", movie)
	}
}

// addPeople credits each distinct name once per film.
func addPeople(lb *leaderboard, people []Person, movie stats.SimpleMovie) {
	seen := make(map[string]struct{}, len(people))
	for _, p := range people {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		lb.add(name, p.Image, movie)
	}
}

func (m *Merger) snapshot(r *run) Snapshot {
	return Snapshot{
		RunID:        r.id,
		TopActors:    r.actors.top(m.opts.TopActors),
		TopDirectors: r.directors.top(m.opts.TopDirectors),
		TopGenres:    r.genres.top(m.opts.TopGenres),
		Processed:    r.processed,
		Total:        len(r.films),
	}
}

func stop(ctx context.Context, cancelled func() bool) bool {
	if ctx.Err() != nil {
		return true
	}
	return cancelled != nil && cancelled()
}

func emit(onUpdate func(Snapshot), snap Snapshot) {
	if onUpdate != nil {
		onUpdate(snap)
	}
}
