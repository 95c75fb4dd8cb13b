// File path: internal/api/server.go
package api

import (
	"encoding/json"
	"expvar"
	"fmt"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/cognifyhq/cognify/internal/chat"
	"github.com/cognifyhq/cognify/internal/common"
	"github.com/cognifyhq/cognify/internal/ingest"
	"github.com/cognifyhq/cognify/internal/rag"
	"github.com/cognifyhq/cognify/internal/sqlite"
)

type Server struct {
	router   chi.Router
	store    *sqlite.Store
	rag      *rag.Service
	chat     *chat.Service
	pipeline *ingest.Pipeline
	defaults rag.Settings
}

// NewServer wires the HTTP surface over the already-constructed services.
func NewServer(store *sqlite.Store, ragSvc *rag.Service, chatSvc *chat.Service, pipeline *ingest.Pipeline, defaults rag.Settings) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("store required")
	}
	if ragSvc == nil {
		return nil, fmt.Errorf("rag service required")
	}
	if pipeline == nil {
		return nil, fmt.Errorf("ingest pipeline required")
	}
	normalized, err := defaults.Normalize()
	if err != nil {
		return nil, fmt.Errorf("default settings: %w", err)
	}
	srv := &Server{
		router:   chi.NewRouter(),
		store:    store,
		rag:      ragSvc,
		chat:     chatSvc,
		pipeline: pipeline,
		defaults: normalized,
	}
	srv.routes()
	common.Logger().Info("api: server ready")
	return srv, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	logger := common.Logger()
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.router.Get("/debug/vars", expvar.Handler().ServeHTTP)

	s.router.Post("/v1/search", s.handleSearch)
	s.router.Post("/v1/context", s.handleContext)
	s.router.Post("/v1/chat", s.handleChat)
	s.router.Get("/v1/documents", s.handleListDocuments)
	s.router.Post("/v1/documents", s.handleCreateDocument)
	s.router.Get("/v1/documents/{documentID}", s.handleGetDocument)
	s.router.Delete("/v1/documents/{documentID}", s.handleDeleteDocument)
	s.router.Post("/v1/documents/{documentID}/reprocess", s.handleReprocessDocument)
	s.router.Get("/v1/logs", s.handleLogs)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	entries := common.LogEntries()
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
