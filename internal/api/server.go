package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/gorilla/websocket"

	"cinewrap/internal/config"
	"cinewrap/internal/enrich"
	"cinewrap/internal/logging"
	"cinewrap/internal/persona"
)

// PosterSource resolves a film to a poster image URL.
type PosterSource interface {
	PosterURL(ctx context.Context, title, year string) (string, error)
}

// Dependencies are the collaborators behind the routes. Any of them may be
// nil: enrichment then yields empty leaderboards, posters come back empty,
// and personas use the fallback.
type Dependencies struct {
	Lookup  enrich.Lookup
	Posters PosterSource
	Persona *persona.Generator
	Merger  *enrich.Merger
	// LLMConfigured reports persona availability on /healthz.
	LLMConfigured bool
	// TMDBCircuit reports the metadata circuit breaker state on /healthz.
	TMDBCircuit func() string
}

// Server is the cinewrap HTTP API.
type Server struct {
	cfg      *config.Config
	deps     Dependencies
	logger   *slog.Logger
	handler  http.Handler
	upgrader websocket.Upgrader

	lockPath string
	lock     *flock.Flock

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

// New builds a server and its router. Nothing is bound until Start.
func New(cfg *config.Config, deps Dependencies, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("api server requires config")
	}
	if deps.Merger == nil {
		deps.Merger = enrich.NewMerger(enrich.OptionsFromConfig(cfg), logger)
	}
	if deps.Persona == nil {
		deps.Persona = persona.NewGenerator(nil, logger)
	}
	s := &Server{
		cfg:      cfg,
		deps:     deps,
		logger:   logging.NewComponentLogger(logger, "api-server"),
		lockPath: cfg.LockPath(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      s.checkOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
	s.handler = s.routes()
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start acquires the state-dir lock, binds the listener, and serves until ctx
// is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		return errors.New("api server already running")
	}
	if err := s.cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	s.lock = flock.New(s.lockPath)
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another cinewrap server is already using %s", s.cfg.Paths.StateDir)
	}

	listener, err := net.Listen("tcp", s.cfg.Server.Bind)
	if err != nil {
		_ = s.lock.Unlock()
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	srv := s.server
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening",
		logging.String(logging.FieldEventType, "api_server_started"),
		logging.String("address", listener.Addr().String()),
		logging.String("lock", s.lockPath),
	)
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down gracefully and releases the lock. It is safe to
// call more than once.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("failed to release server lock", logging.Error(err))
		}
	}
	s.server = nil
	s.logger.Info("api server stopped", logging.String(logging.FieldEventType, "api_server_stopped"))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}
