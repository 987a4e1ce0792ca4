package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"cinewrap/internal/logging"
	"cinewrap/internal/metrics"
	"cinewrap/internal/services"
)

const (
	defaultImageBaseURL = "https://image.tmdb.org/t/p"
	posterSize          = "w500"
	profileSize         = "w185"
	breakerName         = "tmdb"
	maxErrorBody        = 512
)

// Searcher defines the TMDB operations used by enrichment and posters.
type Searcher interface {
	SearchMovieWithOptions(ctx context.Context, query string, opts SearchOptions) (*Response, error)
	GetMovieDetails(ctx context.Context, movieID int64) (*MovieDetails, error)
}

// Client provides access to the TMDB API.
type Client struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	language     string
	maxCast      int
	httpClient   *http.Client
	breaker      *gobreaker.CircuitBreaker[[]byte]
	logger       *slog.Logger
	breakerCfg   BreakerConfig
}

var _ Searcher = (*Client)(nil)

// BreakerConfig tunes the circuit breaker guarding TMDB calls.
type BreakerConfig struct {
	FailureThreshold uint32
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
}

// DefaultBreakerConfig trips after five consecutive failures and probes again
// after thirty seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
	}
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithImageBaseURL overrides the image CDN root (without size segment).
func WithImageBaseURL(base string) Option {
	return func(c *Client) {
		if base = strings.TrimRight(strings.TrimSpace(base), "/"); base != "" {
			c.imageBaseURL = base
		}
	}
}

// WithMaxCast limits how many top-billed cast members LookupMovie returns.
func WithMaxCast(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxCast = n
		}
	}
}

// WithLogger attaches a logger for breaker state changes.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logging.NewComponentLogger(logger, "tmdb")
		}
	}
}

// WithBreakerConfig overrides the circuit breaker settings.
func WithBreakerConfig(cfg BreakerConfig) Option {
	return func(c *Client) {
		c.breakerCfg = cfg
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "tmdb", "new client", "tmdb api key required", nil)
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "tmdb", "new client", "tmdb base url required", nil)
	}
	client := &Client{
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		imageBaseURL: defaultImageBaseURL,
		language:     strings.TrimSpace(language),
		maxCast:      5,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		logger:       logging.NewComponentLogger(nil, "tmdb"),
		breakerCfg:   DefaultBreakerConfig(),
	}
	for _, opt := range opts {
		opt(client)
	}
	client.breaker = newBreaker(client.breakerCfg, client.logger)
	return client, nil
}

func newBreaker(cfg BreakerConfig, logger *slog.Logger) *gobreaker.CircuitBreaker[[]byte] {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Client errors such as 404 say nothing about provider health.
		IsSuccessful: func(err error) bool {
			var se *statusError
			if errors.As(err, &se) {
				return se.code >= 400 && se.code < 500 && se.code != http.StatusTooManyRequests
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			if to == gobreaker.StateOpen {
				logging.WarnWithContext(logger, "tmdb circuit opened", "circuit_breaker_open",
					logging.String("from", from.String()),
					logging.String(logging.FieldErrorHint, "check TMDB availability and api key"),
					logging.String(logging.FieldImpact, "metadata lookups skipped until the breaker closes"),
				)
				return
			}
			logger.Info("tmdb circuit state changed",
				logging.String(logging.FieldEventType, "circuit_breaker_state"),
				logging.String("from", from.String()),
				logging.String("to", to.String()),
			)
		},
	})
}

// BreakerState reports the current breaker state name.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

type statusError struct {
	code  int
	label string
	body  string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("%s returned %d", e.label, e.code)
	}
	return fmt.Sprintf("%s returned %d: %s", e.label, e.code, e.body)
}

// SearchOptions contains optional parameters for TMDB movie search.
type SearchOptions struct {
	Year int `json:"year,omitempty"`
}

// SearchMovie searches TMDB for the supplied title.
func (c *Client) SearchMovie(ctx context.Context, query string) (*Response, error) {
	return c.SearchMovieWithOptions(ctx, query, SearchOptions{})
}

// SearchMovieWithOptions performs a TMDB movie search with optional filters.
func (c *Client) SearchMovieWithOptions(ctx context.Context, query string, opts SearchOptions) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "search", "query must not be empty", nil)
	}
	params := url.Values{}
	params.Set("query", query)
	if opts.Year > 0 {
		params.Set("primary_release_year", strconv.Itoa(opts.Year))
	}
	var payload Response
	if err := c.get(ctx, "/search/movie", params, "tmdb search", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetMovieDetails fetches movie details by TMDB ID with credits appended.
func (c *Client) GetMovieDetails(ctx context.Context, movieID int64) (*MovieDetails, error) {
	if movieID <= 0 {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "movie details", "movie id must be positive", nil)
	}
	params := url.Values{}
	params.Set("append_to_response", "credits")
	var payload MovieDetails
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", movieID), params, "tmdb movie details", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// get issues one GET through the breaker and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, label string, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "tmdb", label, "parse tmdb url", err)
	}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		requestStart := time.Now()
		resp, err := c.httpClient.Do(req)
		latency := time.Since(requestStart)
		if err != nil {
			return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			return nil, &statusError{
				code:  resp.StatusCode,
				label: fmt.Sprintf("%s (latency=%v)", label, latency),
				body:  strings.TrimSpace(string(snippet)),
			}
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		return data, nil
	})
	if err != nil {
		return classify(label, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return services.Wrap(services.ErrExternalTool, "tmdb", label, "decode tmdb response", err)
	}
	return nil
}

func classify(label string, err error) error {
	var se *statusError
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return services.Wrap(services.ErrTransient, "tmdb", label, "circuit open", err)
	case errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, "tmdb", label, "request timed out", err)
	case errors.As(err, &se) && se.code == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "tmdb", label, "", err)
	case errors.As(err, &se) && (se.code == http.StatusUnauthorized || se.code == http.StatusForbidden):
		return services.Wrap(services.ErrConfiguration, "tmdb", label, "api key rejected", err)
	case errors.As(err, &se) && se.code == http.StatusTooManyRequests:
		return services.Wrap(services.ErrTransient, "tmdb", label, "rate limited", err)
	default:
		return services.Wrap(services.ErrExternalTool, "tmdb", label, "", err)
	}
}
