// File path: internal/api/search_handler.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cognifyhq/cognify/internal/rag"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("query required"))
		return
	}

	settings := s.defaults
	if req.SearchMethod != "" {
		settings.SearchMethod = rag.SearchMethod(req.SearchMethod)
	}
	if req.SimilarityMethod != "" {
		settings.SimilarityMethod = rag.SimilarityMethod(req.SimilarityMethod)
	}
	if req.Limit > 0 {
		settings.MaxChunks = req.Limit
	}
	if req.Threshold > 0 {
		settings.SimilarityThreshold = req.Threshold
	}
	if req.BM25Weight > 0 {
		settings.BM25Weight = req.BM25Weight
	}
	if req.VectorWeight > 0 {
		settings.VectorWeight = req.VectorWeight
	}
	if req.RRFK > 0 {
		settings.RRFK = req.RRFK
	}
	if req.IncludeMetadata != nil {
		settings.IncludeMetadata = *req.IncludeMetadata
	}
	scope := rag.Scope{UserID: req.UserID, DocumentIDs: req.DocumentIDs}

	start := time.Now()
	results, err := s.rag.Search(r.Context(), req.Query, settings, scope)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, rag.ErrInvalidSettings) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}
	if results == nil {
		results = []rag.SearchResult{}
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Query:        req.Query,
		Results:      results,
		Total:        len(results),
		SearchTimeMS: time.Since(start).Milliseconds(),
		SearchMethod: string(settings.SearchMethod),
	})
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	var req contextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("query required"))
		return
	}

	settings := s.defaults
	if req.SearchMethod != "" {
		settings.SearchMethod = rag.SearchMethod(req.SearchMethod)
	}
	if req.MaxChunks > 0 {
		settings.MaxChunks = req.MaxChunks
	}
	if req.SimilarityThreshold > 0 {
		settings.SimilarityThreshold = req.SimilarityThreshold
	}
	scope := rag.Scope{UserID: req.UserID, DocumentIDs: req.DocumentIDs}

	contextText, sources, err := s.rag.BuildContext(r.Context(), req.Query, settings, scope, req.MaxContextLength)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, rag.ErrInvalidSettings) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}
	if sources == nil {
		sources = []rag.SearchResult{}
	}
	writeJSON(w, http.StatusOK, contextResponse{
		Query:         req.Query,
		Context:       contextText,
		Sources:       sources,
		TotalSources:  len(sources),
		ContextLength: len(contextText),
	})
}
