// File path: internal/rag/fusion.go
package rag

import (
	"context"
	"sync"

	"github.com/cognifyhq/cognify/internal/common"
)

// HybridSearch runs the vector and keyword strategies concurrently, then
// fuses their rankings with weighted Reciprocal Rank Fusion:
//
//	score = vector_weight/(rrf_k+vector_rank) + bm25_weight/(bm25_rank+rrf_k)
//
// The fused set is the union of both result lists; a chunk absent from one
// list simply contributes nothing for that term. Both sub-searches over-fetch
// at twice the requested limit so fusion can promote chunks that sit just
// outside either individual top list.
func (s *Service) HybridSearch(ctx context.Context, query string, settings Settings, scope Scope) ([]SearchResult, error) {
	wide := settings
	wide.MaxChunks = settings.MaxChunks * 2

	var (
		wg         sync.WaitGroup
		vectorRes  []SearchResult
		keywordRes []SearchResult
		vectorErr  error
		keywordErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		vectorRes, vectorErr = s.VectorSearch(ctx, query, wide, scope)
	}()
	go func() {
		defer wg.Done()
		keywordRes, keywordErr = s.KeywordSearch(ctx, query, wide, scope)
	}()
	wg.Wait()
	if vectorErr != nil {
		return nil, vectorErr
	}
	if keywordErr != nil {
		return nil, keywordErr
	}

	fused := fuseRRF(vectorRes, keywordRes, settings)
	sortByScore(fused)
	fused = capResults(fused, settings.MaxChunks)
	common.Logger().Debug("rag: hybrid search complete",
		"vector", len(vectorRes), "keyword", len(keywordRes), "fused", len(fused))
	return fused, nil
}

// fuseRRF merges the two ranked lists into fresh results carrying both source
// ranks and the fused score. Union order is vector results first, then
// keyword-only results, which fixes tie order deterministically because the
// final sort is stable.
func fuseRRF(vectorRes, keywordRes []SearchResult, settings Settings) []SearchResult {
	merged := make(map[string]*SearchResult, len(vectorRes)+len(keywordRes))
	order := make([]string, 0, len(vectorRes)+len(keywordRes))

	for i := range vectorRes {
		r := vectorRes[i]
		merged[r.ChunkID] = &r
		order = append(order, r.ChunkID)
	}
	for i := range keywordRes {
		r := keywordRes[i]
		if existing, ok := merged[r.ChunkID]; ok {
			existing.BM25Rank = r.BM25Rank
			continue
		}
		merged[r.ChunkID] = &r
		order = append(order, r.ChunkID)
	}

	fused := make([]SearchResult, 0, len(order))
	for _, id := range order {
		r := merged[id]
		score := 0.0
		if r.VectorRank != nil {
			score += settings.VectorWeight / float64(settings.RRFK+*r.VectorRank)
		}
		if r.BM25Rank != nil {
			score += settings.BM25Weight / float64(settings.RRFK+*r.BM25Rank)
		}
		r.Score = score
		r.RRFScore = &score
		fused = append(fused, *r)
	}
	return fused
}
