// Package enrich folds third-party movie metadata into actor, director, and
// genre leaderboards for a year's film list.
//
// A Merger processes films in small batches: lookups inside a batch run
// concurrently, batches run one after another behind a rate limiter, and a
// Snapshot of the top entries is emitted after every batch. Cancellation is
// honoured only between batches. Each Run owns its own accumulation tables,
// so concurrent runs never share state.
package enrich
