// Package api serves year statistics over HTTP for browser and script clients.
//
// # Routes
//
//	POST /api/stats    multipart upload (diary, optional ratings) -> Stats JSON
//	GET  /api/enrich   WebSocket: client sends films, server streams snapshots
//	GET  /api/poster   ?title=&year= -> {"url": ...}
//	POST /api/persona  Stats JSON body -> persona
//	GET  /healthz      liveness and collaborator availability
//	GET  /metrics      Prometheus exposition
//
// An upload that yields no viewings for the selected year answers 422 with
// "insufficient data". Collaborator outages (TMDB, LLM) never fail a request:
// posters come back empty, enrichment snapshots carry no new data, and the
// persona falls back to canned copy.
//
// # Lifecycle
//
// Server.Start takes a file lock in the state directory so two servers never
// share one metadata cache, then listens until the context is cancelled.
// DTOs use camelCase JSON tags matching the Stats payload.
package api
