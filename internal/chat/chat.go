// File path: internal/chat/chat.go
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cognifyhq/cognify/internal/common"
	"github.com/cognifyhq/cognify/internal/llm"
	"github.com/cognifyhq/cognify/internal/rag"
)

const systemRAGTemplate = `You are CogniFy, an intelligent assistant with access to the user's documents.

Below is relevant context retrieved from the user's documents. Use this context to answer the question.

--- CONTEXT ---
%s
--- END CONTEXT ---

Guidelines:
- Answer based on the provided context
- Cite sources using [1], [2], etc. matching the source numbers in context
- If the context doesn't contain enough information, say "I don't have enough information in the documents to answer that."
- Be accurate and concise
- Respond in the same language as the question`

const systemNoContext = `You are CogniFy, an intelligent assistant.

The user's question doesn't seem to require document context. Answer based on your general knowledge.

Be helpful, accurate, and concise.`

// Retriever assembles grounding context for a query. The rag service
// satisfies it.
type Retriever interface {
	BuildContext(ctx context.Context, query string, settings rag.Settings, scope rag.Scope, maxContextLength int) (string, []rag.SearchResult, error)
}

// Answer is a grounded chat reply with the chunks it cited.
type Answer struct {
	Response string             `json:"response"`
	Sources  []rag.SearchResult `json:"sources,omitempty"`
}

// Service orchestrates retrieval-augmented chat: retrieve context, frame the
// prompt, call the model.
type Service struct {
	retriever Retriever
	provider  llm.Provider
	maxCtx    int
}

// NewService wires the chat orchestrator. maxContextLength <= 0 uses the
// retrieval default.
func NewService(retriever Retriever, provider llm.Provider, maxContextLength int) (*Service, error) {
	if retriever == nil {
		return nil, errors.New("retriever required")
	}
	if provider == nil {
		return nil, errors.New("llm provider required")
	}
	return &Service{retriever: retriever, provider: provider, maxCtx: maxContextLength}, nil
}

// Respond answers the latest user message in history, grounded on retrieved
// context when useRAG is set. History carries prior turns in order; the last
// entry must be the user's question.
func (s *Service) Respond(ctx context.Context, history []llm.Message, settings rag.Settings, scope rag.Scope, useRAG bool) (Answer, error) {
	history, err := llm.NormalizeMessages(history)
	if err != nil {
		return Answer{}, err
	}
	question := strings.TrimSpace(history[len(history)-1].Content)
	if question == "" {
		return Answer{}, errors.New("empty question")
	}

	var (
		contextText string
		sources     []rag.SearchResult
	)
	if useRAG {
		contextText, sources, err = s.retriever.BuildContext(ctx, question, settings, scope, s.maxCtx)
		if err != nil {
			return Answer{}, fmt.Errorf("retrieve context: %w", err)
		}
	}

	system := systemNoContext
	if contextText != "" {
		system = fmt.Sprintf(systemRAGTemplate, contextText)
	}
	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, llm.Message{Role: "system", Content: system})
	messages = append(messages, history...)

	response, err := s.provider.Chat(ctx, messages)
	if err != nil {
		return Answer{}, fmt.Errorf("chat completion: %w", err)
	}
	common.Logger().Debug("chat: response generated",
		"provider", s.provider.Name(), "sources", len(sources), "grounded", contextText != "")
	return Answer{Response: response, Sources: sources}, nil
}
