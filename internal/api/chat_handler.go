// File path: internal/api/chat_handler.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cognifyhq/cognify/internal/llm"
	"github.com/cognifyhq/cognify/internal/rag"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("chat not configured"))
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("prompt required"))
		return
	}

	history := make([]llm.Message, 0, len(req.History)+1)
	for _, msg := range req.History {
		history = append(history, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	history = append(history, llm.Message{Role: "user", Content: req.Prompt})

	settings := s.defaults
	if req.SearchMethod != "" {
		settings.SearchMethod = rag.SearchMethod(req.SearchMethod)
	}
	scope := rag.Scope{UserID: req.UserID, DocumentIDs: req.DocumentIDs}
	useRAG := true
	if req.UseRAG != nil {
		useRAG = *req.UseRAG
	}

	answer, err := s.chat.Respond(r.Context(), history, settings, scope, useRAG)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, rag.ErrInvalidSettings) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse(answer))
}
