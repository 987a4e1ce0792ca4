package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cinewrap/internal/letterboxd"
	"cinewrap/internal/logging"
	"cinewrap/internal/metrics"
	"cinewrap/internal/services"
	"cinewrap/internal/stats"
)

const (
	maxUploadBytes    = 32 << 20
	maxUploadMemory   = 8 << 20
	maxPersonaBody    = 4 << 20
	insufficientData  = "insufficient data"
	statusOK          = "ok"
	uploadDiaryField  = "diary"
	uploadRatingField = "ratings"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status: statusOK,
		TMDB:   s.deps.Lookup != nil,
		LLM:    s.deps.LLMConfigured,
	}
	if s.deps.TMDBCircuit != nil {
		resp.TMDBCircuit = s.deps.TMDBCircuit()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart upload")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	opts, err := s.statsOptions(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	diaryFile, _, err := r.FormFile(uploadDiaryField)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "diary file is required")
		return
	}
	defer diaryFile.Close()
	diary, err := letterboxd.LoadDiary(diaryFile)
	if err != nil {
		metrics.RecordStatsInvalid()
		s.writeServiceError(w, r, err)
		return
	}

	var ratings []letterboxd.RatingEntry
	ratingsFile, _, err := r.FormFile(uploadRatingField)
	switch {
	case err == nil:
		defer ratingsFile.Close()
		if ratings, err = letterboxd.LoadRatings(ratingsFile); err != nil {
			metrics.RecordStatsInvalid()
			s.writeServiceError(w, r, err)
			return
		}
	case !errors.Is(err, http.ErrMissingFile):
		s.writeError(w, http.StatusBadRequest, "invalid ratings upload")
		return
	}

	start := time.Now()
	result, ok := stats.Compute(diary, ratings, opts)
	metrics.RecordStatsCompute(time.Since(start), ok)
	if !ok {
		s.writeError(w, http.StatusUnprocessableEntity, insufficientData)
		return
	}
	logging.WithContext(r.Context(), s.logger).Info("stats computed",
		logging.String(logging.FieldEventType, "stats_computed"),
		logging.Int("year", result.Year),
		logging.Int("total_watched", result.TotalWatched),
	)
	s.writeJSON(w, http.StatusOK, result)
}

// statsOptions reads year and strict from the query string, falling back to
// form fields.
func (s *Server) statsOptions(r *http.Request) (stats.Options, error) {
	opts := stats.Options{MinutesPerFilm: s.cfg.Stats.MinutesPerFilm}
	if raw := strings.TrimSpace(r.FormValue("year")); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil || year <= 0 {
			return opts, errors.New("year must be a positive integer")
		}
		opts.Year = year
	}
	if raw := strings.TrimSpace(r.FormValue("strict")); raw != "" {
		strict, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, errors.New("strict must be a boolean")
		}
		opts.Strict = strict
	}
	return opts, nil
}

func (s *Server) handlePoster(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		s.writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	year := strings.TrimSpace(r.URL.Query().Get("year"))
	if s.deps.Posters == nil {
		s.writeJSON(w, http.StatusOK, PosterResponse{})
		return
	}
	url, err := s.deps.Posters.PosterURL(r.Context(), title, year)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(r.Context(), s.logger), "poster lookup failed", "poster_lookup_failed",
			logging.String("title", title),
			logging.String("year", year),
			logging.Error(err),
			logging.String(logging.FieldImpact, "poster omitted"),
		)
		url = ""
	}
	s.writeJSON(w, http.StatusOK, PosterResponse{URL: url})
}

func (s *Server) handlePersona(w http.ResponseWriter, r *http.Request) {
	var payload stats.Stats
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPersonaBody))
	if err := decoder.Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid stats payload")
		return
	}
	if payload.TotalWatched <= 0 {
		s.writeError(w, http.StatusUnprocessableEntity, insufficientData)
		return
	}
	s.writeJSON(w, http.StatusOK, s.deps.Persona.Generate(r.Context(), &payload))
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := services.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "request failed", "api_request_failed",
			logging.Error(err),
		)
	}
	s.writeError(w, status, err.Error())
}
