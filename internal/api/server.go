// Package api exposes the upload pipeline over HTTP for the lead
// tracker's upload dialog.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/leadline/leadline/internal/ingest"
	"github.com/leadline/leadline/internal/service/reconcile"
)

// Server holds the handler dependencies. An Engine is built per commit
// because its progress callback is tied to one session.
type Server struct {
	sessions    *ingest.SessionStore
	repo        reconcile.Repository
	notifier    reconcile.Notifier
	batchSize   int
	maxFileSize int64
}

// NewServer creates the API server. notifier may be nil when the
// classification hook is disabled.
func NewServer(sessions *ingest.SessionStore, repo reconcile.Repository, notifier reconcile.Notifier, batchSize int, maxFileSize int64) *Server {
	if maxFileSize <= 0 {
		maxFileSize = 50 * 1024 * 1024
	}
	return &Server{
		sessions:    sessions,
		repo:        repo,
		notifier:    notifier,
		batchSize:   batchSize,
		maxFileSize: maxFileSize,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Tenant-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/uploads", func(r chi.Router) {
		r.Post("/", s.handleCreateUpload)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetUpload)
			r.Delete("/", s.handleDismissUpload)
			r.Put("/mapping", s.handleUpdateMapping)
			r.Put("/delimiter", s.handleUpdateDelimiter)
			r.Delete("/candidates/{index}", s.handleRemoveCandidate)
			r.Post("/commit", s.handleCommit)
			r.Get("/progress", s.handleProgress)
		})
	})

	return r
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
