package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"cinewrap/internal/services"
)

var (
	// Statistics
	StatsComputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cinewrap_stats_compute_duration_seconds",
			Help:    "Duration of year statistics aggregation in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	StatsComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinewrap_stats_computed_total",
			Help: "Total aggregation requests by outcome",
		},
		[]string{"outcome"}, // "ok", "no_result", "invalid"
	)

	// Enrichment
	EnrichmentRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinewrap_enrichment_runs_total",
			Help: "Total enrichment runs by how they ended",
		},
		[]string{"outcome"}, // "completed", "cancelled"
	)

	EnrichmentBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cinewrap_enrichment_batch_duration_seconds",
			Help:    "Wall time of one concurrent lookup batch",
			Buckets: prometheus.DefBuckets,
		},
	)

	EnrichmentActiveRuns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cinewrap_enrichment_active_runs",
			Help: "Number of enrichment runs in progress",
		},
	)

	// Metadata lookups
	MetadataLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinewrap_metadata_lookups_total",
			Help: "Metadata lookups by result",
		},
		[]string{"source", "result"}, // source: "tmdb"; result: "found", "not_found", "error"
	)

	MetadataCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinewrap_metadata_cache_hits_total",
			Help: "Total metadata cache hits",
		},
	)

	MetadataCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinewrap_metadata_cache_misses_total",
			Help: "Total metadata cache misses",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cinewrap_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Persona
	PersonaRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinewrap_persona_requests_total",
			Help: "Persona generations by result",
		},
		[]string{"result"}, // "generated", "fallback"
	)

	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinewrap_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinewrap_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cinewrap_websocket_connections",
			Help: "Number of open enrichment WebSocket connections",
		},
	)
)

// RecordStatsCompute records an aggregation call.
func RecordStatsCompute(duration time.Duration, ok bool) {
	StatsComputeDuration.Observe(duration.Seconds())
	if ok {
		StatsComputed.WithLabelValues("ok").Inc()
	} else {
		StatsComputed.WithLabelValues("no_result").Inc()
	}
}

// RecordStatsInvalid records an upload rejected before aggregation.
func RecordStatsInvalid() {
	StatsComputed.WithLabelValues("invalid").Inc()
}

// RecordEnrichmentRun records how an enrichment run ended.
func RecordEnrichmentRun(completed bool) {
	if completed {
		EnrichmentRuns.WithLabelValues("completed").Inc()
	} else {
		EnrichmentRuns.WithLabelValues("cancelled").Inc()
	}
}

// TrackEnrichmentRun adjusts the in-progress gauge.
func TrackEnrichmentRun(inc bool) {
	if inc {
		EnrichmentActiveRuns.Inc()
	} else {
		EnrichmentActiveRuns.Dec()
	}
}

// RecordMetadataLookup classifies a lookup outcome.
func RecordMetadataLookup(source string, found bool, err error) {
	result := "found"
	switch {
	case err != nil:
		result = "error"
		if errors.Is(err, services.ErrTimeout) {
			result = "timeout"
		}
	case !found:
		result = "not_found"
	}
	MetadataLookups.WithLabelValues(source, result).Inc()
}

// RecordCacheLookup increments the hit or miss counter.
func RecordCacheLookup(hit bool) {
	if hit {
		MetadataCacheHits.Inc()
	} else {
		MetadataCacheMisses.Inc()
	}
}

// RecordPersona records whether the persona came from the model or the fallback.
func RecordPersona(generated bool) {
	if generated {
		PersonaRequests.WithLabelValues("generated").Inc()
	} else {
		PersonaRequests.WithLabelValues("fallback").Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackWebSocket adjusts the open connection gauge.
func TrackWebSocket(inc bool) {
	if inc {
		WebSocketConnections.Inc()
	} else {
		WebSocketConnections.Dec()
	}
}
