// File path: internal/sqlite/store_test.go
package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/cognifyhq/cognify/internal/kb"
	"github.com/cognifyhq/cognify/internal/rag"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := Config{Path: ":memory:"}
	cfg.applyDefaults()
	store, err := OpenWithConfig(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func seedDocument(t *testing.T, store *Store, id, title, owner, status string, chunks []kb.Chunk) {
	t.Helper()
	ctx := context.Background()
	doc := kb.Document{ID: id, Title: title, OriginalFilename: title + ".txt", UploadedBy: owner}
	if err := store.InsertDocument(ctx, doc); err != nil {
		t.Fatalf("insert document %s: %v", id, err)
	}
	if err := store.ReplaceChunks(ctx, id, chunks); err != nil {
		t.Fatalf("replace chunks for %s: %v", id, err)
	}
	if err := store.SetDocumentStatus(ctx, id, status); err != nil {
		t.Fatalf("set status for %s: %v", id, err)
	}
}

func embeddedChunk(id, docID string, ordinal int, content string, vector []float32) kb.Chunk {
	return kb.Chunk{
		ID:             id,
		DocumentID:     docID,
		Ordinal:        ordinal,
		Content:        content,
		TokenCount:     len(content) / 4,
		Embedding:      vector,
		EmbeddingModel: "test-model",
	}
}

func TestDocumentLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedDocument(t, store, "doc-1", "Handbook", "amira", kb.StatusCompleted, nil)

	doc, err := store.DocumentByID(ctx, "doc-1")
	if err != nil {
		t.Fatalf("document by id: %v", err)
	}
	if doc.ProcessingStatus != kb.StatusCompleted {
		t.Fatalf("expected completed status, got %q", doc.ProcessingStatus)
	}

	if err := store.SoftDeleteDocument(ctx, "doc-1"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := store.DocumentByID(ctx, "doc-1"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.SoftDeleteDocument(ctx, "doc-1"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestReplaceChunksSwapsAtomically(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := []kb.Chunk{
		embeddedChunk("c-1", "doc-1", 0, "alpha beta", []float32{1, 0}),
		embeddedChunk("c-2", "doc-1", 1, "gamma delta", []float32{0, 1}),
	}
	seedDocument(t, store, "doc-1", "Notes", "amira", kb.StatusCompleted, first)

	second := []kb.Chunk{embeddedChunk("c-3", "doc-1", 0, "epsilon zeta", []float32{1, 1})}
	if err := store.ReplaceChunks(ctx, "doc-1", second); err != nil {
		t.Fatalf("replace chunks: %v", err)
	}

	hits, err := store.Match(ctx, []string{"epsilon"}, rag.Scope{}, 10)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(hits) != 1 || hits[0].ChunkID != "c-3" {
		t.Fatalf("expected only replacement chunk to match, got %+v", hits)
	}
	if hits, _ := store.Match(ctx, []string{"alpha"}, rag.Scope{}, 10); len(hits) != 0 {
		t.Fatalf("old chunks still matchable: %+v", hits)
	}
}

func TestMatchPrefixConjunction(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chunks := []kb.Chunk{
		embeddedChunk("c-1", "doc-1", 0, "database migration guide", nil),
		embeddedChunk("c-2", "doc-1", 1, "database backup strategy", nil),
		embeddedChunk("c-3", "doc-1", 2, "frontend styling notes", nil),
	}
	seedDocument(t, store, "doc-1", "Infra", "amira", kb.StatusCompleted, chunks)

	hits, err := store.Match(ctx, []string{"data", "migr"}, rag.Scope{}, 10)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(hits) != 1 || hits[0].ChunkID != "c-1" {
		t.Fatalf("expected conjunctive prefix match on c-1, got %+v", hits)
	}
	if hits[0].Score <= 0 {
		t.Fatalf("expected positive relevance score, got %f", hits[0].Score)
	}
	if hits[0].DocumentTitle != "Infra" {
		t.Fatalf("expected document metadata on hit, got %+v", hits[0])
	}
}

func TestMatchSanitizesTokens(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chunks := []kb.Chunk{embeddedChunk("c-1", "doc-1", 0, "quarterly revenue report", nil)}
	seedDocument(t, store, "doc-1", "Finance", "amira", kb.StatusCompleted, chunks)

	// Operator characters must be stripped, not interpreted.
	hits, err := store.Match(ctx, []string{`reven"ue`, `OR)`}, rag.Scope{}, 10)
	if err != nil {
		t.Fatalf("match with hostile tokens: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected sanitized tokens to still match, got %+v", hits)
	}

	hits, err = store.Match(ctx, []string{`"*`, `(((`}, rag.Scope{}, 10)
	if err != nil {
		t.Fatalf("match with empty sanitized tokens: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits when every token sanitizes away, got %+v", hits)
	}
}

func TestNearestOrdersAndFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chunks := []kb.Chunk{
		embeddedChunk("c-close", "doc-1", 0, "close match", []float32{1, 0, 0}),
		embeddedChunk("c-mid", "doc-1", 1, "middling match", []float32{0.7, 0.7, 0}),
		embeddedChunk("c-far", "doc-1", 2, "far match", []float32{0, 0, 1}),
	}
	seedDocument(t, store, "doc-1", "Vectors", "amira", kb.StatusCompleted, chunks)

	hits, err := store.Nearest(ctx, []float32{1, 0, 0}, rag.SimilarityCosine, rag.Scope{}, 0.3, 10)
	if err != nil {
		t.Fatalf("nearest: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected threshold to drop orthogonal chunk, got %+v", hits)
	}
	if hits[0].ChunkID != "c-close" || hits[1].ChunkID != "c-mid" {
		t.Fatalf("expected descending similarity order, got %+v", hits)
	}
	if hits[0].Score <= hits[1].Score {
		t.Fatalf("scores not descending: %+v", hits)
	}
}

func TestNearestSkipsUnsearchableDocuments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	vec := []float32{1, 0}
	seedDocument(t, store, "doc-live", "Live", "amira", kb.StatusCompleted,
		[]kb.Chunk{embeddedChunk("c-live", "doc-live", 0, "live content", vec)})
	seedDocument(t, store, "doc-pending", "Pending", "amira", kb.StatusProcessing,
		[]kb.Chunk{embeddedChunk("c-pending", "doc-pending", 0, "pending content", vec)})
	seedDocument(t, store, "doc-gone", "Gone", "amira", kb.StatusCompleted,
		[]kb.Chunk{embeddedChunk("c-gone", "doc-gone", 0, "deleted content", vec)})
	if err := store.SoftDeleteDocument(ctx, "doc-gone"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	// No embedding yet: must be invisible to vector search.
	seedDocument(t, store, "doc-raw", "Raw", "amira", kb.StatusCompleted,
		[]kb.Chunk{embeddedChunk("c-raw", "doc-raw", 0, "raw content", nil)})

	hits, err := store.Nearest(ctx, vec, rag.SimilarityCosine, rag.Scope{}, 0.3, 10)
	if err != nil {
		t.Fatalf("nearest: %v", err)
	}
	if len(hits) != 1 || hits[0].ChunkID != "c-live" {
		t.Fatalf("expected only the live embedded chunk, got %+v", hits)
	}
}

func TestScopeRestrictsBothQueries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	vec := []float32{1, 0}
	seedDocument(t, store, "doc-a", "Alpha", "amira", kb.StatusCompleted,
		[]kb.Chunk{embeddedChunk("c-a", "doc-a", 0, "shared terminology", vec)})
	seedDocument(t, store, "doc-b", "Beta", "bruno", kb.StatusCompleted,
		[]kb.Chunk{embeddedChunk("c-b", "doc-b", 0, "shared terminology", vec)})

	scope := rag.Scope{UserID: "amira"}
	hits, err := store.Nearest(ctx, vec, rag.SimilarityCosine, scope, 0.3, 10)
	if err != nil {
		t.Fatalf("nearest: %v", err)
	}
	if len(hits) != 1 || hits[0].DocumentID != "doc-a" {
		t.Fatalf("owner scope leaked in nearest: %+v", hits)
	}

	hits, err = store.Match(ctx, []string{"shared"}, rag.Scope{DocumentIDs: []string{"doc-b"}}, 10)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(hits) != 1 || hits[0].DocumentID != "doc-b" {
		t.Fatalf("document scope leaked in match: %+v", hits)
	}
}

func TestEmbeddingUpdateAndPendingList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chunks := []kb.Chunk{
		embeddedChunk("c-1", "doc-1", 0, "first", nil),
		embeddedChunk("c-2", "doc-1", 1, "second", []float32{1}),
	}
	seedDocument(t, store, "doc-1", "Doc", "amira", kb.StatusProcessing, chunks)

	pending, err := store.ChunksMissingEmbedding(ctx, "doc-1")
	if err != nil {
		t.Fatalf("pending chunks: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "c-1" {
		t.Fatalf("expected only c-1 pending, got %+v", pending)
	}

	if err := store.UpdateChunkEmbedding(ctx, "c-1", []float32{0.5, 0.5}, "test-model"); err != nil {
		t.Fatalf("update embedding: %v", err)
	}
	pending, err = store.ChunksMissingEmbedding(ctx, "doc-1")
	if err != nil {
		t.Fatalf("pending chunks after update: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending chunks, got %+v", pending)
	}

	if err := store.UpdateChunkEmbedding(ctx, "missing", []float32{1}, "test-model"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for missing chunk, got %v", err)
	}
}

func TestEmbeddingCacheRoundTripAndExpiry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	vector := []float32{0.1, 0.2, 0.3}
	if err := store.StoreCachedEmbedding(ctx, "hash-1", "model-a", vector, time.Hour); err != nil {
		t.Fatalf("store cached embedding: %v", err)
	}
	got, err := store.CachedEmbedding(ctx, "hash-1", "model-a")
	if err != nil {
		t.Fatalf("cached embedding: %v", err)
	}
	if len(got) != len(vector) {
		t.Fatalf("expected %d components, got %d", len(vector), len(got))
	}
	for i := range vector {
		if got[i] != vector[i] {
			t.Fatalf("component %d mismatch: %f != %f", i, got[i], vector[i])
		}
	}

	if got, _ := store.CachedEmbedding(ctx, "hash-1", "model-b"); got != nil {
		t.Fatalf("expected model-scoped cache miss, got %v", got)
	}

	if err := store.StoreCachedEmbedding(ctx, "hash-2", "model-a", vector, -time.Minute); err == nil {
		// Non-positive TTL falls back to the default, so the row is live.
		if got, _ := store.CachedEmbedding(ctx, "hash-2", "model-a"); got == nil {
			t.Fatalf("expected default TTL to keep entry alive")
		}
	}
}

func TestVectorCodecRoundTrip(t *testing.T) {
	in := []float32{0, -1.5, 3.25, 1e-7}
	out := decodeVector(encodeVector(in))
	if len(out) != len(in) {
		t.Fatalf("length mismatch: %d != %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("component %d mismatch: %g != %g", i, out[i], in[i])
		}
	}
	if decodeVector(nil) != nil {
		t.Fatalf("expected nil for empty blob")
	}
}
