// Package server is the read-only query API over committed snapshots.
//
// Endpoints:
//   - GET /health
//   - GET /api/entities?ids=C1|C2   entity projection of current snapshots
//   - GET /api/entries              listing by scraper, age and claimed items
//   - GET /api/scrapers             entry counts per scraper
//   - GET /api/entries/{id}/revisions
//   - GET /api/revisions/{id}       raw stored snapshot
//   - GET /metrics                  prometheus collectors
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/cersei/am"
	"github.com/teranos/cersei/errors"
	"github.com/teranos/cersei/logger"
	"github.com/teranos/cersei/storage"
)

const (
	// ShutdownTimeout bounds graceful shutdown after the context is cancelled
	ShutdownTimeout = 10 * time.Second

	readHeaderTimeout = 5 * time.Second
)

// Store is the read model the API serves from.
type Store interface {
	CurrentSnapshots(ctx context.Context, entryIDs []int64) ([]storage.EntitySnapshot, error)
	Revisions(ctx context.Context, entryID int64) ([]storage.RevisionInfo, error)
	Snapshot(ctx context.Context, revisionID int64) (string, error)
	QueryEntries(ctx context.Context, q storage.EntryQuery) ([]storage.EntryListing, error)
	ScraperSummaries(ctx context.Context) ([]storage.ScraperSummary, error)
}

// Server serves the query API.
type Server struct {
	store          Store
	allowedOrigins []string
	logger         *zap.SugaredLogger
	mux            *http.ServeMux
	started        time.Time
}

// New creates a server. Routes are registered on a private mux.
func New(store Store, cfg am.ServerConfig, log *zap.SugaredLogger) *Server {
	s := &Server{
		store:          store,
		allowedOrigins: cfg.AllowedOrigins,
		logger:         logger.OrNop(log).Named("server"),
		mux:            http.NewServeMux(),
		started:        time.Now(),
	}
	s.setupHTTPRoutes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves on port until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	if port <= 0 {
		port = am.DefaultServerPort
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow(fmt.Sprintf("HTTP server listening on port %d", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrapf(err, "server on port %d stopped", port)
	case <-ctx.Done():
	}

	s.logger.Infow("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "graceful shutdown failed")
	}
	if err := <-errCh; err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "server stopped with error")
	}
	return nil
}
