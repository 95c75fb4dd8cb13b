// File path: internal/rag/service.go
package rag

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cognifyhq/cognify/internal/common"
	"github.com/cognifyhq/cognify/internal/common/telemetry"
)

// Service is the retrieval facade. It owns no mutable state beyond its
// injected collaborators, so concurrent searches never interact in memory.
type Service struct {
	index    ChunkIndex
	embedder Embedder
}

// New constructs a Service over the given chunk index and embedder.
func New(index ChunkIndex, embedder Embedder) (*Service, error) {
	if index == nil {
		return nil, fmt.Errorf("chunk index required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	return &Service{index: index, embedder: embedder}, nil
}

// Search dispatches to the search strategy selected by the settings. It is
// the single call-site for chat orchestration and the API layer.
func (s *Service) Search(ctx context.Context, query string, settings Settings, scope Scope) ([]SearchResult, error) {
	settings, err := settings.Normalize()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { telemetry.RecordSearch(string(settings.SearchMethod), time.Since(start)) }()
	switch settings.SearchMethod {
	case SearchVector:
		return s.VectorSearch(ctx, query, settings, scope)
	case SearchBM25:
		return s.KeywordSearch(ctx, query, settings, scope)
	default:
		return s.HybridSearch(ctx, query, settings, scope)
	}
}

// VectorSearch embeds the query and ranks chunks by the configured
// similarity metric. Results below the similarity threshold are dropped.
// An unavailable embedding provider degrades to an empty result list; only
// data-store failures surface as errors.
func (s *Service) VectorSearch(ctx context.Context, query string, settings Settings, scope Scope) ([]SearchResult, error) {
	logger := common.Logger()
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil || len(vector) == 0 {
		if err != nil {
			logger.Warn("rag: query embedding unavailable", "error", err)
		}
		return nil, nil
	}
	hits, err := s.index.Nearest(ctx, vector, settings.SimilarityMethod, scope, settings.SimilarityThreshold, settings.MaxChunks)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	results := make([]SearchResult, 0, len(hits))
	for i, hit := range hits {
		result := hitResult(hit, settings.IncludeMetadata)
		rank := i + 1
		result.VectorRank = &rank
		results = append(results, result)
	}
	logger.Debug("rag: vector search complete", "query_len", len(query), "results", len(results))
	return results, nil
}

// KeywordSearch ranks chunks by conjunctive prefix matching over whitespace
// tokens. There is deliberately no score floor: any conjunctive match
// qualifies regardless of magnitude, unlike vector search's threshold.
func (s *Service) KeywordSearch(ctx context.Context, query string, settings Settings, scope Scope) ([]SearchResult, error) {
	tokens := strings.Fields(query)
	if len(tokens) == 0 {
		return nil, nil
	}
	hits, err := s.index.Match(ctx, tokens, scope, settings.MaxChunks)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	results := make([]SearchResult, 0, len(hits))
	for i, hit := range hits {
		result := hitResult(hit, settings.IncludeMetadata)
		rank := i + 1
		result.BM25Rank = &rank
		results = append(results, result)
	}
	common.Logger().Debug("rag: keyword search complete", "tokens", len(tokens), "results", len(results))
	return results, nil
}

func capResults(results []SearchResult, limit int) []SearchResult {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}

func sortByScore(results []SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}
