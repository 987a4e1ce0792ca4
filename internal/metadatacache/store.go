package metadatacache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	_ "modernc.org/sqlite"

	"cinewrap/internal/config"
	"cinewrap/internal/enrich"
	"cinewrap/internal/logging"
)

// timestampLayout is fixed width so cached_at sorts lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one cached lookup.
type Entry struct {
	Title    string           `json:"title"`
	Year     string           `json:"year"`
	Found    bool             `json:"found"`
	Metadata *enrich.Metadata `json:"metadata,omitempty"`
	CachedAt time.Time        `json:"cachedAt"`
}

// Store is a SQLite-backed metadata cache. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	path   string
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the freshness window. Zero or negative keeps entries forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logging.NewComponentLogger(logger, "metadatacache")
		}
	}
}

// OpenFromConfig opens the cache at the configured path with the configured TTL.
func OpenFromConfig(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return Open(cfg.Paths.CachePath, WithTTL(cfg.CacheTTL()), WithLogger(logger))
}

// Open initializes or connects to the cache database and applies migrations.
func Open(path string, opts ...Option) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("cache path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{
		db:     db,
		path:   path,
		now:    time.Now,
		logger: logging.NewComponentLogger(nil, "metadatacache"),
	}
	for _, opt := range opts {
		opt(store)
	}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Key builds the normalized cache key for a film.
func Key(title, year string) string {
	folded := cases.Fold().String(strings.Join(strings.Fields(title), " "))
	return folded + "|" + strings.TrimSpace(year)
}

// Get returns the cached entry for a film. Expired entries report ok=false.
func (s *Store) Get(ctx context.Context, title, year string) (Entry, bool, error) {
	ctx = ensureContext(ctx)
	var (
		entry     Entry
		found     int
		metaJSON  sql.NullString
		cachedRaw string
	)
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			`SELECT title, year, found, metadata_json, cached_at FROM metadata_cache WHERE cache_key = ?`,
			Key(title, year),
		).Scan(&entry.Title, &entry.Year, &found, &metaJSON, &cachedRaw)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("get cache entry: %w", err)
	}

	entry.Found = found != 0
	entry.CachedAt, _ = time.Parse(timestampLayout, cachedRaw)
	if s.expired(entry.CachedAt) {
		return Entry{}, false, nil
	}
	if entry.Found && metaJSON.Valid {
		var meta enrich.Metadata
		if err := json.Unmarshal([]byte(metaJSON.String), &meta); err != nil {
			return Entry{}, false, fmt.Errorf("decode cached metadata: %w", err)
		}
		entry.Metadata = &meta
	}
	return entry, true, nil
}

// Put stores metadata for a film. A nil meta records a negative entry.
func (s *Store) Put(ctx context.Context, title, year string, meta *enrich.Metadata) error {
	ctx = ensureContext(ctx)
	var payload any
	found := 0
	if meta != nil {
		data, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		payload = string(data)
		found = 1
	}
	err := retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO metadata_cache (cache_key, title, year, found, metadata_json, cached_at)
             VALUES (?, ?, ?, ?, ?, ?)
             ON CONFLICT(cache_key) DO UPDATE SET
                 title = excluded.title,
                 year = excluded.year,
                 found = excluded.found,
                 metadata_json = excluded.metadata_json,
                 cached_at = excluded.cached_at`,
			Key(title, year),
			strings.TrimSpace(title),
			strings.TrimSpace(year),
			found,
			payload,
			s.now().UTC().Format(timestampLayout),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("put cache entry: %w", err)
	}
	return nil
}

// List returns all entries, newest first, including expired ones.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT title, year, found, metadata_json, cached_at FROM metadata_cache ORDER BY cached_at DESC, title`)
	if err != nil {
		return nil, fmt.Errorf("list cache entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry     Entry
			found     int
			metaJSON  sql.NullString
			cachedRaw string
		)
		if err := rows.Scan(&entry.Title, &entry.Year, &found, &metaJSON, &cachedRaw); err != nil {
			return nil, fmt.Errorf("scan cache entry: %w", err)
		}
		entry.Found = found != 0
		entry.CachedAt, _ = time.Parse(timestampLayout, cachedRaw)
		if entry.Found && metaJSON.Valid {
			var meta enrich.Metadata
			if err := json.Unmarshal([]byte(metaJSON.String), &meta); err == nil {
				entry.Metadata = &meta
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cache entries: %w", err)
	}
	return entries, nil
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM metadata_cache`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count cache entries: %w", err)
	}
	return count, nil
}

// Clear removes every entry and returns how many were deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM metadata_cache`)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	s.logger.Info("metadata cache cleared",
		logging.String(logging.FieldEventType, "metadata_cache_cleared"),
		logging.Int64("removed", removed),
	)
	return removed, nil
}

// Prune deletes entries older than the TTL.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.ttl).UTC().Format(timestampLayout)
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM metadata_cache WHERE cached_at < ?`, cutoff)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	return removed, nil
}

func (s *Store) expired(cachedAt time.Time) bool {
	if s.ttl <= 0 || cachedAt.IsZero() {
		return false
	}
	return s.now().Sub(cachedAt) > s.ttl
}
