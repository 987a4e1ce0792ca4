package metadatacache

import (
	"context"
	"log/slog"

	"cinewrap/internal/enrich"
	"cinewrap/internal/logging"
	"cinewrap/internal/metrics"
)

// CachedLookup serves lookups from the store and falls through to the
// wrapped Lookup on a miss. Upstream errors are not cached.
type CachedLookup struct {
	store  *Store
	next   enrich.Lookup
	logger *slog.Logger
}

var _ enrich.Lookup = (*CachedLookup)(nil)

// NewCachedLookup wraps next with store.
func NewCachedLookup(store *Store, next enrich.Lookup, logger *slog.Logger) *CachedLookup {
	return &CachedLookup{
		store:  store,
		next:   next,
		logger: logging.NewComponentLogger(logger, "metadatacache"),
	}
}

// LookupMovie implements enrich.Lookup.
func (c *CachedLookup) LookupMovie(ctx context.Context, title, year string) (*enrich.Metadata, error) {
	entry, ok, err := c.store.Get(ctx, title, year)
	if err != nil {
		logging.WarnWithContext(c.logger, "metadata cache read failed", "metadata_cache_read_failed",
			logging.String("title", title),
			logging.Error(err),
			logging.String(logging.FieldImpact, "lookup falls through to the provider"),
		)
	}
	if ok {
		metrics.RecordCacheLookup(true)
		return entry.Metadata, nil
	}
	metrics.RecordCacheLookup(false)

	meta, err := c.next.LookupMovie(ctx, title, year)
	if err != nil {
		return nil, err
	}
	if putErr := c.store.Put(ctx, title, year, meta); putErr != nil {
		logging.WarnWithContext(c.logger, "metadata cache write failed", "metadata_cache_write_failed",
			logging.String("title", title),
			logging.Error(putErr),
			logging.String(logging.FieldImpact, "film will be looked up again next run"),
		)
	}
	return meta, nil
}
