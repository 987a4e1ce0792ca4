package api

import (
	"cinewrap/internal/enrich"
	"cinewrap/internal/stats"
)

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// PosterResponse answers /api/poster. URL is empty when no poster exists.
type PosterResponse struct {
	URL string `json:"url"`
}

// HealthResponse answers /healthz.
type HealthResponse struct {
	Status      string `json:"status"`
	TMDB        bool   `json:"tmdb"`
	LLM         bool   `json:"llm"`
	TMDBCircuit string `json:"tmdbCircuit,omitempty"`
}

// EnrichRequest is the first WebSocket frame a client sends.
type EnrichRequest struct {
	Films []stats.SimpleMovie `json:"films"`
}

// EnrichMessage types.
const (
	MessageSnapshot = "snapshot"
	MessageDone     = "done"
	MessageError    = "error"
	MessageCancel   = "cancel"
)

// EnrichMessage is one server->client frame, or a client cancel request.
type EnrichMessage struct {
	Type     string           `json:"type"`
	Snapshot *enrich.Snapshot `json:"snapshot,omitempty"`
	Error    string           `json:"error,omitempty"`
}
