// File path: internal/rag/settings.go
package rag

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrInvalidSettings marks request settings the caller got wrong, as opposed
// to downstream failures. Handlers branch on it with errors.Is.
var ErrInvalidSettings = errors.New("invalid search settings")

// SearchMethod selects the retrieval strategy for a request.
type SearchMethod string

const (
	SearchVector SearchMethod = "vector"
	SearchBM25   SearchMethod = "bm25"
	SearchHybrid SearchMethod = "hybrid"
)

// SimilarityMethod selects the vector distance metric.
type SimilarityMethod string

const (
	SimilarityCosine    SimilarityMethod = "cosine"
	SimilarityEuclidean SimilarityMethod = "euclidean"
	SimilarityDot       SimilarityMethod = "dot"
)

// Default settings mirror the platform's shipped configuration.
const (
	DefaultSimilarityThreshold = 0.3
	DefaultMaxChunks           = 10
	DefaultBM25Weight          = 0.4
	DefaultVectorWeight        = 0.6
	DefaultRRFK                = 60
)

// Settings is the per-request retrieval configuration. It is a value type:
// requests never share or mutate a common instance.
type Settings struct {
	SearchMethod        SearchMethod     `json:"search_method"`
	SimilarityMethod    SimilarityMethod `json:"similarity_method"`
	SimilarityThreshold float64          `json:"similarity_threshold"`
	MaxChunks           int              `json:"max_chunks"`
	BM25Weight          float64          `json:"bm25_weight"`
	VectorWeight        float64          `json:"vector_weight"`
	RRFK                int              `json:"rrf_k"`
	IncludeMetadata     bool             `json:"include_metadata"`
}

// DefaultSettings returns the stock configuration: hybrid search with cosine
// similarity. Weights are not required to sum to 1; the fusion formula
// tolerates arbitrary non-negative weights.
func DefaultSettings() Settings {
	return Settings{
		SearchMethod:        SearchHybrid,
		SimilarityMethod:    SimilarityCosine,
		SimilarityThreshold: DefaultSimilarityThreshold,
		MaxChunks:           DefaultMaxChunks,
		BM25Weight:          DefaultBM25Weight,
		VectorWeight:        DefaultVectorWeight,
		RRFK:                DefaultRRFK,
		IncludeMetadata:     true,
	}
}

// Normalize fills zero-valued fields with defaults and validates the method
// selectors. Returned settings are safe to hand to Service methods.
func (s Settings) Normalize() (Settings, error) {
	out := s
	switch out.SearchMethod {
	case "":
		out.SearchMethod = SearchHybrid
	case SearchVector, SearchBM25, SearchHybrid:
	default:
		return Settings{}, fmt.Errorf("%w: unknown search method %q", ErrInvalidSettings, out.SearchMethod)
	}
	switch out.SimilarityMethod {
	case "":
		out.SimilarityMethod = SimilarityCosine
	case SimilarityCosine, SimilarityEuclidean, SimilarityDot:
	default:
		return Settings{}, fmt.Errorf("%w: unknown similarity method %q", ErrInvalidSettings, out.SimilarityMethod)
	}
	if out.SimilarityThreshold <= 0 {
		out.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if out.MaxChunks <= 0 {
		out.MaxChunks = DefaultMaxChunks
	}
	if out.BM25Weight < 0 {
		out.BM25Weight = DefaultBM25Weight
	}
	if out.VectorWeight < 0 {
		out.VectorWeight = DefaultVectorWeight
	}
	if out.BM25Weight == 0 && out.VectorWeight == 0 {
		out.BM25Weight = DefaultBM25Weight
		out.VectorWeight = DefaultVectorWeight
	}
	if out.RRFK <= 0 {
		out.RRFK = DefaultRRFK
	}
	return out, nil
}

// LoadDefaultSettings builds the process-wide default settings from the
// environment. Callers still override per request.
func LoadDefaultSettings() Settings {
	settings := DefaultSettings()
	if v := strings.TrimSpace(os.Getenv("COGNIFY_SEARCH_METHOD")); v != "" {
		settings.SearchMethod = SearchMethod(v)
	}
	if v := strings.TrimSpace(os.Getenv("COGNIFY_SIMILARITY_METHOD")); v != "" {
		settings.SimilarityMethod = SimilarityMethod(v)
	}
	if v := strings.TrimSpace(os.Getenv("COGNIFY_SIMILARITY_THRESHOLD")); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			settings.SimilarityThreshold = parsed
		}
	}
	if v := strings.TrimSpace(os.Getenv("COGNIFY_MAX_CHUNKS")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			settings.MaxChunks = parsed
		}
	}
	if normalized, err := settings.Normalize(); err == nil {
		return normalized
	}
	return DefaultSettings()
}
