// Package server implements the HTTP API for chat export management,
// statistics, full-text search, and notation transcription.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nmoralez/batuchat/internal/config"
	"github.com/nmoralez/batuchat/internal/database"
	"github.com/nmoralez/batuchat/internal/logger"
	"github.com/nmoralez/batuchat/internal/notation"
)

// Server wires the HTTP routes to the store and the transcriber.
type Server struct {
	httpServer  *http.Server
	log         *slog.Logger
	store       database.Store
	transcriber notation.Transcriber
	shutdownCfg config.ServerConfig
}

// NewServer creates the HTTP server with all routes registered.
func NewServer(cfg config.ServerConfig, log *slog.Logger, store database.Store, transcriber notation.Transcriber) *Server {
	s := &Server{
		log:         log.With("component", "server"),
		store:       store,
		transcriber: transcriber,
		shutdownCfg: cfg,
	}

	r := mux.NewRouter()
	r.Use(logger.Middleware(s.log))

	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)

	chat := r.PathPrefix("/api/chat").Subrouter()
	chat.HandleFunc("/upload", s.handleUpload).Methods(http.MethodPost)
	chat.HandleFunc("/exports", s.handleListExports).Methods(http.MethodGet)
	chat.HandleFunc("/exports/{id}", s.handleDeleteExport).Methods(http.MethodDelete)
	chat.HandleFunc("/messages", s.handleMessages).Methods(http.MethodGet)
	chat.HandleFunc("/senders", s.handleSenders).Methods(http.MethodGet)
	chat.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	chat.HandleFunc("/fun-stats", s.handleFunStats).Methods(http.MethodGet)
	chat.HandleFunc("/search", s.handleSearch).Methods(http.MethodGet)

	not := r.PathPrefix("/api/notation").Subrouter()
	not.HandleFunc("/image", s.handleNotationImage).Methods(http.MethodPost)
	not.HandleFunc("/text", s.handleNotationText).Methods(http.MethodPost)

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Handler exposes the configured route tree.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is cancelled
// or the listener fails. Shutdown waits for in-flight requests up to the
// configured timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("HTTP server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownCfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.log.Info("HTTP server stopped gracefully.")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.respondError(w, r, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	s.respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
