// File path: internal/api/documents_handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	chi "github.com/go-chi/chi/v5"

	"github.com/cognifyhq/cognify/internal/common"
	"github.com/cognifyhq/cognify/internal/sqlite"
)

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("title required"))
		return
	}
	if strings.TrimSpace(req.Content) == "" && len(req.Pages) == 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("content required"))
		return
	}

	doc, err := s.pipeline.Create(r.Context(), req.Title, req.Filename, req.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if req.Async {
		// Processing outlives the request; detach from its context.
		go func() {
			if err := s.pipeline.Process(context.Background(), doc.ID, req.Content, req.Pages); err != nil {
				common.Logger().Error("api: background processing failed", "document_id", doc.ID, "error", err)
			}
		}()
		writeJSON(w, http.StatusAccepted, documentView(doc))
		return
	}

	if err := s.pipeline.Process(r.Context(), doc.ID, req.Content, req.Pages); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	final, err := s.store.DocumentByID(r.Context(), doc.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, documentView(final))
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.ListDocuments(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	views := make([]documentResponse, 0, len(docs))
	for _, doc := range docs {
		views = append(views, documentView(doc))
	}
	writeJSON(w, http.StatusOK, documentListResponse{Documents: views, Total: len(views)})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "documentID")
	doc, err := s.store.DocumentByID(r.Context(), id)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Errorf("document %s not found", id))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, documentView(doc))
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "documentID")
	err := s.pipeline.Delete(r.Context(), id)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Errorf("document %s not found", id))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "document_id": id})
}

func (s *Server) handleReprocessDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "documentID")
	err := s.pipeline.Reprocess(r.Context(), id)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Errorf("document %s not found", id))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	doc, err := s.store.DocumentByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, documentView(doc))
}
