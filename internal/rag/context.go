// File path: internal/rag/context.go
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/cognifyhq/cognify/internal/common/telemetry"
)

// DefaultMaxContextLength caps the assembled context when the caller passes
// a non-positive limit.
const DefaultMaxContextLength = 8000

// BuildContext searches and assembles a citation-annotated context string
// for the LLM. Each chunk is rendered as a header line plus its content:
//
//	[1: Report Q3, p.4]
//	<chunk content>
//
// Blocks are joined with "\n---\n". Chunks are included whole, in rank
// order, until the next block would exceed maxContextLength; the returned
// results are exactly the chunks that made it in, in order.
func (s *Service) BuildContext(ctx context.Context, query string, settings Settings, scope Scope, maxContextLength int) (string, []SearchResult, error) {
	if maxContextLength <= 0 {
		maxContextLength = DefaultMaxContextLength
	}
	results, err := s.Search(ctx, query, settings, scope)
	if err != nil {
		return "", nil, err
	}
	if len(results) == 0 {
		return "", nil, nil
	}
	telemetry.RecordContextBuild()

	parts := make([]string, 0, len(results))
	used := make([]SearchResult, 0, len(results))
	current := 0
	for i, result := range results {
		source := fmt.Sprintf("[%d]", i+1)
		if result.DocumentTitle != "" {
			source = fmt.Sprintf("[%d: %s", i+1, result.DocumentTitle)
			if result.PageNumber != nil {
				source += fmt.Sprintf(", p.%d", *result.PageNumber)
			}
			source += "]"
		}
		block := source + "\n" + result.Content + "\n"
		if current+len(block) > maxContextLength {
			break
		}
		parts = append(parts, block)
		current += len(block)
		used = append(used, result)
	}
	return strings.Join(parts, "\n---\n"), used, nil
}
