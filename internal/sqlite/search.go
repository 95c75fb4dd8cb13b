// File path: internal/sqlite/search.go
package sqlite

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/jmoiron/sqlx"

	"github.com/cognifyhq/cognify/internal/rag"
)

// Nearest scores every searchable chunk against the query vector with the
// requested metric and returns the best matches above minSimilarity.
// Searchable means: owning document live and fully processed, chunk has an
// embedding, and the chunk falls inside the caller's scope.
func (s *Store) Nearest(ctx context.Context, vector []float32, metric rag.SimilarityMethod, scope rag.Scope, minSimilarity float64, limit int) ([]rag.ChunkHit, error) {
	if len(vector) == 0 || limit <= 0 {
		return nil, nil
	}
	query := `
                SELECT c.chunk_id, c.document_id, c.content, c.page_number, c.section_title,
                       d.title AS document_title, d.original_filename AS document_filename,
                       c.embedding
                FROM chunks c
                JOIN documents d ON d.document_id = c.document_id
                WHERE d.is_deleted = 0
                  AND d.processing_status = 'completed'
                  AND c.embedding IS NOT NULL`
	args := []any{}
	query, args = appendScope(query, args, scope)

	var rows []candidateRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select vector candidates: %w", err)
	}

	hits := make([]rag.ChunkHit, 0, len(rows))
	for _, row := range rows {
		candidate := decodeVector(row.Embedding)
		if len(candidate) != len(vector) {
			continue
		}
		score := similarity(vector, candidate, metric)
		if score < minSimilarity {
			continue
		}
		hits = append(hits, rag.ChunkHit{
			ChunkID:          row.ChunkID,
			DocumentID:       row.DocumentID,
			Content:          row.Content,
			Score:            score,
			PageNumber:       pagePointer(row.PageNumber),
			SectionTitle:     row.SectionTitle,
			DocumentTitle:    row.DocumentTitle,
			DocumentFilename: row.DocumentFilename,
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Match runs conjunctive prefix matching over the full-text index and scores
// rows with SQLite's built-in bm25 ranking. bm25() reports lower-is-better,
// so the stored score is its negation.
func (s *Store) Match(ctx context.Context, tokens []string, scope rag.Scope, limit int) ([]rag.ChunkHit, error) {
	if limit <= 0 {
		return nil, nil
	}
	expr := matchExpression(tokens)
	if expr == "" {
		return nil, nil
	}
	query := `
                SELECT c.chunk_id, c.document_id, c.content, c.page_number, c.section_title,
                       d.title AS document_title, d.original_filename AS document_filename,
                       -bm25(chunk_fts) AS score
                FROM chunk_fts
                JOIN chunks c ON c.rowid = chunk_fts.rowid
                JOIN documents d ON d.document_id = c.document_id
                WHERE chunk_fts MATCH ?
                  AND d.is_deleted = 0
                  AND d.processing_status = 'completed'`
	args := []any{expr}
	query, args = appendScope(query, args, scope)
	query += ` ORDER BY bm25(chunk_fts) LIMIT ?`
	args = append(args, limit)

	var rows []matchRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select keyword matches: %w", err)
	}
	hits := make([]rag.ChunkHit, 0, len(rows))
	for _, row := range rows {
		hits = append(hits, rag.ChunkHit{
			ChunkID:          row.ChunkID,
			DocumentID:       row.DocumentID,
			Content:          row.Content,
			Score:            row.Score,
			PageNumber:       pagePointer(row.PageNumber),
			SectionTitle:     row.SectionTitle,
			DocumentTitle:    row.DocumentTitle,
			DocumentFilename: row.DocumentFilename,
		})
	}
	return hits, nil
}

func appendScope(query string, args []any, scope rag.Scope) (string, []any) {
	if scope.UserID != "" {
		query += ` AND d.uploaded_by = ?`
		args = append(args, scope.UserID)
	}
	if len(scope.DocumentIDs) > 0 {
		in, inArgs, err := sqlx.In(` AND c.document_id IN (?)`, scope.DocumentIDs)
		if err == nil {
			query += in
			args = append(args, inArgs...)
		}
	}
	return query, args
}

// matchExpression builds an FTS5 query like `"foo"* AND "bar"*` from raw
// tokens. Tokens are reduced to letters and digits before quoting, which
// keeps user input from reaching the expression parser as syntax. Tokens
// that sanitize to nothing are dropped; if none survive the expression is
// empty and no query should run.
func matchExpression(tokens []string) string {
	terms := make([]string, 0, len(tokens))
	for _, token := range tokens {
		clean := sanitizeToken(token)
		if clean == "" {
			continue
		}
		terms = append(terms, `"`+clean+`"*`)
	}
	return strings.Join(terms, " AND ")
}

func sanitizeToken(token string) string {
	var b strings.Builder
	for _, r := range token {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// similarity maps each metric onto a comparable similarity scale: cosine in
// [-1,1], euclidean as 1-distance, dot as 1+product.
func similarity(a, b []float32, metric rag.SimilarityMethod) float64 {
	switch metric {
	case rag.SimilarityEuclidean:
		var sum float64
		for i := range a {
			d := float64(a[i]) - float64(b[i])
			sum += d * d
		}
		return 1 - math.Sqrt(sum)
	case rag.SimilarityDot:
		return 1 + dot(a, b)
	default:
		na := math.Sqrt(dot(a, a))
		nb := math.Sqrt(dot(b, b))
		if na == 0 || nb == 0 {
			return 0
		}
		return dot(a, b) / (na * nb)
	}
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
