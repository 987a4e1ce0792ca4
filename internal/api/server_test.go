package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"cinewrap/internal/api"
	"cinewrap/internal/config"
	"cinewrap/internal/persona"
	"cinewrap/internal/stats"
)

const diaryCSV = `Date,Name,Year,Letterboxd URI,Rating,Rewatch,Tags,Watched Date
2024-01-05,Heat,1995,https://boxd.it/a,4.5,,,2024-01-05
2024-01-06,Alien,1979,https://boxd.it/b,5,,,2024-01-06
2024-03-10,Heat,1995,https://boxd.it/c,4,Yes,,2024-03-10
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "state", "logs")
	cfg.Paths.CachePath = filepath.Join(base, "cache", "metadata.db")
	cfg.Server.Bind = "127.0.0.1:0"
	cfg.Server.RateLimitPerMinute = 0
	return &cfg
}

func newServer(t *testing.T, cfg *config.Config, deps api.Dependencies) *api.Server {
	t.Helper()
	srv, err := api.New(cfg, deps, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return srv
}

func uploadRequest(t *testing.T, target string, files map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for field, content := range files {
		part, err := mw.CreateFormFile(field, field+".csv")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := io.WriteString(part, content); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp api.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return resp.Error
}

func TestStatsUpload(t *testing.T) {
	srv := newServer(t, testConfig(t), api.Dependencies{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, uploadRequest(t, "/api/stats", map[string]string{"diary": diaryCSV}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected request id header")
	}
	var got stats.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if got.Year != 2024 || got.TotalWatched != 3 || got.RewatchCount != 1 {
		t.Fatalf("unexpected stats: year=%d total=%d rewatches=%d", got.Year, got.TotalWatched, got.RewatchCount)
	}
	if got.FirstFilm != "Heat" || got.LastFilm != "Heat" || got.TopMonth != "Jan" {
		t.Fatalf("unexpected summary: %+v", got)
	}
}

func TestStatsUploadWithRatingsAndYear(t *testing.T) {
	ratings := "Date,Name,Year,Letterboxd URI,Rating\n2024-02-01,Heat,1995,https://boxd.it/a,5\n"
	srv := newServer(t, testConfig(t), api.Dependencies{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, uploadRequest(t, "/api/stats?year=2024&strict=false", map[string]string{
		"diary":   diaryCSV,
		"ratings": ratings,
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got stats.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if got.AverageRating != 5 {
		t.Fatalf("average rating = %v, want ratings log to win", got.AverageRating)
	}
}

func TestStatsUploadErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		files  map[string]string
		status int
		want   string
	}{
		{name: "no viewings in year", target: "/api/stats?year=2019", files: map[string]string{"diary": diaryCSV}, status: http.StatusUnprocessableEntity, want: "insufficient data"},
		{name: "missing diary", target: "/api/stats", files: map[string]string{"ratings": "Rating\n4\n"}, status: http.StatusBadRequest, want: "diary file is required"},
		{name: "diary without dates", target: "/api/stats", files: map[string]string{"diary": "Name,Year\nHeat,1995\n"}, status: http.StatusBadRequest, want: "Invalid Diary CSV"},
		{name: "ratings without rating", target: "/api/stats", files: map[string]string{"diary": diaryCSV, "ratings": "Name,Year\nHeat,1995\n"}, status: http.StatusBadRequest, want: "invalid ratings CSV"},
		{name: "bad year", target: "/api/stats?year=abc", files: map[string]string{"diary": diaryCSV}, status: http.StatusBadRequest, want: "year must be a positive integer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, testConfig(t), api.Dependencies{})
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, uploadRequest(t, tt.target, tt.files))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
			if msg := decodeError(t, rec); !strings.Contains(msg, tt.want) {
				t.Fatalf("error = %q, want it to contain %q", msg, tt.want)
			}
		})
	}
}

type posterFunc func(ctx context.Context, title, year string) (string, error)

func (f posterFunc) PosterURL(ctx context.Context, title, year string) (string, error) {
	return f(ctx, title, year)
}

func TestPosterEndpoint(t *testing.T) {
	posters := posterFunc(func(_ context.Context, title, year string) (string, error) {
		if title == "Broken" {
			return "", errors.New("tmdb down")
		}
		return "https://image.tmdb.org/t/p/w500/" + strings.ToLower(title) + "-" + year + ".jpg", nil
	})
	srv := newServer(t, testConfig(t), api.Dependencies{Posters: posters})

	tests := []struct {
		target string
		status int
		url    string
	}{
		{"/api/poster?title=Heat&year=1995", http.StatusOK, "https://image.tmdb.org/t/p/w500/heat-1995.jpg"},
		{"/api/poster?title=Broken", http.StatusOK, ""},
		{"/api/poster?year=1995", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
		if rec.Code != tt.status {
			t.Fatalf("%s: status = %d, want %d", tt.target, rec.Code, tt.status)
		}
		if tt.status != http.StatusOK {
			continue
		}
		var resp api.PosterResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode poster: %v", err)
		}
		if resp.URL != tt.url {
			t.Fatalf("%s: url = %q, want %q", tt.target, resp.URL, tt.url)
		}
	}
}

func TestPersonaEndpointFallsBackWithoutLLM(t *testing.T) {
	srv := newServer(t, testConfig(t), api.Dependencies{})
	body, _ := json.Marshal(stats.Stats{Year: 2024, TotalWatched: 12, TopMonth: "Jan"})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/persona", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got persona.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode persona: %v", err)
	}
	if got != persona.FallbackResult() {
		t.Fatalf("expected fallback persona, got %+v", got)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/persona", strings.NewReader("{")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/persona", strings.NewReader(`{"year":2024}`)))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty stats status = %d", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newServer(t, testConfig(t), api.Dependencies{
		LLMConfigured: true,
		TMDBCircuit:   func() string { return "closed" },
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var health api.HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "ok" || health.TMDB || !health.LLM || health.TMDBCircuit != "closed" {
		t.Fatalf("unexpected health: %+v", health)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `cinewrap_api_requests_total{method="GET",route="/healthz",status="200"}`) {
		t.Fatalf("expected healthz request to be counted:\n%s", rec.Body.String())
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.RateLimitPerMinute = 2
	srv := newServer(t, cfg, api.Dependencies{})

	var last int
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/poster?title=Heat", nil)
		req.RemoteAddr = "192.0.2.10:4567"
		srv.Handler().ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", last)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz must not be rate limited, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.AllowedOrigins = []string{"http://localhost:5173"}
	srv := newServer(t, cfg, api.Dependencies{})

	req := httptest.NewRequest(http.MethodOptions, "/api/stats", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("allow origin = %q", got)
	}
}

func TestStartHoldsStateLock(t *testing.T) {
	cfg := testConfig(t)
	first := newServer(t, cfg, api.Dependencies{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := first.Start(ctx); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	t.Cleanup(first.Stop)
	if first.Addr() == "" {
		t.Fatal("expected bound address")
	}

	resp, err := http.Get("http://" + first.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("GET healthz: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}

	second := newServer(t, cfg, api.Dependencies{})
	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("expected second server to fail while the lock is held")
	}

	first.Stop()
	if err := second.Start(ctx); err != nil {
		t.Fatalf("second Start after Stop returned error: %v", err)
	}
	second.Stop()
}
