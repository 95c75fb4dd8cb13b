// File path: internal/chat/chat_test.go
package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cognifyhq/cognify/internal/llm"
	"github.com/cognifyhq/cognify/internal/rag"
)

type fakeRetriever struct {
	contextText string
	sources     []rag.SearchResult
	err         error
	lastQuery   string
}

func (f *fakeRetriever) BuildContext(_ context.Context, query string, _ rag.Settings, _ rag.Scope, _ int) (string, []rag.SearchResult, error) {
	f.lastQuery = query
	return f.contextText, f.sources, f.err
}

type fakeProvider struct {
	reply        string
	err          error
	lastMessages []llm.Message
}

func (f *fakeProvider) Chat(_ context.Context, messages []llm.Message) (string, error) {
	f.lastMessages = messages
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeProvider) Name() string { return "fake" }

func TestRespondGroundsOnContext(t *testing.T) {
	retriever := &fakeRetriever{
		contextText: "[1: Handbook]\npolicy text\n",
		sources:     []rag.SearchResult{{ChunkID: "c1"}},
	}
	provider := &fakeProvider{reply: "Per the handbook [1], yes."}
	svc, err := NewService(retriever, provider, 0)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	history := []llm.Message{{Role: "User", Content: "Is this allowed?"}}
	answer, err := svc.Respond(context.Background(), history, rag.DefaultSettings(), rag.Scope{}, true)
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if answer.Response != provider.reply {
		t.Fatalf("unexpected response %q", answer.Response)
	}
	if len(answer.Sources) != 1 || answer.Sources[0].ChunkID != "c1" {
		t.Fatalf("expected cited sources, got %+v", answer.Sources)
	}
	if retriever.lastQuery != "Is this allowed?" {
		t.Fatalf("query not forwarded: %q", retriever.lastQuery)
	}

	if len(provider.lastMessages) != 2 {
		t.Fatalf("expected system + user message, got %d", len(provider.lastMessages))
	}
	system := provider.lastMessages[0]
	if system.Role != "system" || !strings.Contains(system.Content, "policy text") {
		t.Fatalf("context missing from system prompt: %+v", system)
	}
	if provider.lastMessages[1].Role != "user" {
		t.Fatalf("history role not normalized: %+v", provider.lastMessages[1])
	}
}

func TestRespondWithoutRAG(t *testing.T) {
	retriever := &fakeRetriever{contextText: "[1]\nshould not appear\n"}
	provider := &fakeProvider{reply: "General answer."}
	svc, _ := NewService(retriever, provider, 0)

	history := []llm.Message{{Role: "user", Content: "What is Go?"}}
	answer, err := svc.Respond(context.Background(), history, rag.DefaultSettings(), rag.Scope{}, false)
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if len(answer.Sources) != 0 {
		t.Fatalf("expected no sources without retrieval, got %+v", answer.Sources)
	}
	if strings.Contains(provider.lastMessages[0].Content, "should not appear") {
		t.Fatalf("retrieval context leaked into ungrounded prompt")
	}
}

func TestRespondEmptyContextFallsBack(t *testing.T) {
	retriever := &fakeRetriever{contextText: ""}
	provider := &fakeProvider{reply: "From general knowledge."}
	svc, _ := NewService(retriever, provider, 0)

	history := []llm.Message{{Role: "user", Content: "Anything indexed?"}}
	if _, err := svc.Respond(context.Background(), history, rag.DefaultSettings(), rag.Scope{}, true); err != nil {
		t.Fatalf("respond: %v", err)
	}
	if !strings.Contains(provider.lastMessages[0].Content, "general knowledge") {
		t.Fatalf("expected no-context prompt, got %q", provider.lastMessages[0].Content)
	}
}

func TestRespondErrors(t *testing.T) {
	provider := &fakeProvider{reply: "x"}
	svc, _ := NewService(&fakeRetriever{err: errors.New("store down")}, provider, 0)
	history := []llm.Message{{Role: "user", Content: "q"}}
	if _, err := svc.Respond(context.Background(), history, rag.DefaultSettings(), rag.Scope{}, true); err == nil {
		t.Fatalf("expected retrieval error to propagate")
	}

	svc, _ = NewService(&fakeRetriever{}, &fakeProvider{err: errors.New("model down")}, 0)
	if _, err := svc.Respond(context.Background(), history, rag.DefaultSettings(), rag.Scope{}, true); err == nil {
		t.Fatalf("expected chat error to propagate")
	}

	if _, err := svc.Respond(context.Background(), nil, rag.DefaultSettings(), rag.Scope{}, true); err == nil {
		t.Fatalf("expected error for empty history")
	}
}
