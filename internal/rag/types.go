// File path: internal/rag/types.go
package rag

import "context"

// Scope restricts retrieval to a slice of the corpus. The zero value means
// no restriction. Both sub-searches apply the same scope so hybrid fusion
// ranks over a single candidate universe.
type Scope struct {
	UserID      string   `json:"user_id,omitempty"`
	DocumentIDs []string `json:"document_ids,omitempty"`
}

// SearchResult is an ephemeral, query-scoped view over a chunk. One result
// exists per chunk per search call; results are constructed fresh at each
// stage and never persisted.
type SearchResult struct {
	ChunkID          string  `json:"chunk_id"`
	DocumentID       string  `json:"document_id"`
	Content          string  `json:"content"`
	Score            float64 `json:"score"`
	PageNumber       *int    `json:"page_number,omitempty"`
	SectionTitle     string  `json:"section_title,omitempty"`
	DocumentTitle    string  `json:"document_title,omitempty"`
	DocumentFilename string  `json:"document_filename,omitempty"`

	// Populated only by hybrid search.
	VectorRank *int     `json:"vector_rank,omitempty"`
	BM25Rank   *int     `json:"bm25_rank,omitempty"`
	RRFScore   *float64 `json:"rrf_score,omitempty"`
}

// ChunkHit is a scored row returned by the chunk index. The score semantics
// depend on the query: similarity for Nearest, keyword relevance for Match.
type ChunkHit struct {
	ChunkID          string
	DocumentID       string
	Content          string
	Score            float64
	PageNumber       *int
	SectionTitle     string
	DocumentTitle    string
	DocumentFilename string
}

// ChunkIndex is the data-store boundary consumed by the retrieval core.
// Both queries must exclude soft-deleted and unprocessed documents, apply
// the scope identically, and return enough metadata to populate a
// SearchResult without a second round trip.
type ChunkIndex interface {
	// Nearest returns up to limit chunks ordered by descending similarity
	// to the query vector under the given metric, keeping only rows with
	// similarity >= minSimilarity.
	Nearest(ctx context.Context, vector []float32, metric SimilarityMethod, scope Scope, minSimilarity float64, limit int) ([]ChunkHit, error)

	// Match returns up to limit chunks ordered by descending keyword
	// relevance. Every token must match with prefix semantics; tokens are
	// passed as data, never interpolated into query text by the caller.
	Match(ctx context.Context, tokens []string, scope Scope, limit int) ([]ChunkHit, error)
}

// Embedder produces a dense vector for query text. A nil vector with a nil
// error means the provider could not serve the request; retrieval treats
// that as "no matches", not as a fault.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// hitResult builds a fresh result from a store hit. Document metadata is
// carried only when requested; identity and content always are.
func hitResult(hit ChunkHit, includeMetadata bool) SearchResult {
	result := SearchResult{
		ChunkID:    hit.ChunkID,
		DocumentID: hit.DocumentID,
		Content:    hit.Content,
		Score:      hit.Score,
	}
	if includeMetadata {
		result.PageNumber = hit.PageNumber
		result.SectionTitle = hit.SectionTitle
		result.DocumentTitle = hit.DocumentTitle
		result.DocumentFilename = hit.DocumentFilename
	}
	return result
}
