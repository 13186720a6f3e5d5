package server

import (
	"net/http"
	"strings"

	"github.com/teranos/cersei/internal/metrics"
)

// setupHTTPRoutes configures all HTTP handlers
func (s *Server) setupHTTPRoutes() {
	s.mux.HandleFunc("/health", s.corsMiddleware(s.HandleHealth))
	s.mux.HandleFunc("/api/entities", s.corsMiddleware(s.HandleEntities))                      // Entity projection (GET ?ids=C1|C2)
	s.mux.HandleFunc("/api/entries", s.corsMiddleware(s.HandleEntries))                        // Entry listing (GET ?scraper=&link=P31:Q5&limit=)
	s.mux.HandleFunc("/api/entries/{id}/revisions", s.corsMiddleware(s.HandleEntryRevisions)) // Revision history of one entry (GET)
	s.mux.HandleFunc("/api/revisions/{id}", s.corsMiddleware(s.HandleRevision))               // Raw snapshot of one revision (GET)
	s.mux.HandleFunc("/api/scrapers", s.corsMiddleware(s.HandleScrapers))                      // Entry counts per scraper (GET)
	s.mux.Handle("/metrics", metrics.Handler())
}

// corsMiddleware adds CORS headers for configured allowed origins.
// The API is read-only, so only GET and OPTIONS are advertised.
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.checkOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// checkOrigin prefix-matches origin against the configured origins so any port is allowed.
func (s *Server) checkOrigin(origin string) bool {
	for _, allowed := range s.allowedOrigins {
		if allowed == "*" || strings.HasPrefix(origin, allowed) {
			return true
		}
	}
	return false
}
