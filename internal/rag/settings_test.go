// File path: internal/rag/settings_test.go
package rag

import (
	"errors"
	"testing"
)

func TestNormalizeFillsDefaults(t *testing.T) {
	settings, err := Settings{}.Normalize()
	if err != nil {
		t.Fatalf("normalize zero value: %v", err)
	}
	if settings.SearchMethod != SearchHybrid || settings.SimilarityMethod != SimilarityCosine {
		t.Fatalf("unexpected defaults: %+v", settings)
	}
	if settings.SimilarityThreshold != DefaultSimilarityThreshold || settings.MaxChunks != DefaultMaxChunks {
		t.Fatalf("unexpected defaults: %+v", settings)
	}
	if settings.RRFK != DefaultRRFK {
		t.Fatalf("unexpected rrf constant: %d", settings.RRFK)
	}
}

func TestNormalizeKeepsExplicitValues(t *testing.T) {
	in := Settings{
		SearchMethod:        SearchBM25,
		SimilarityMethod:    SimilarityDot,
		SimilarityThreshold: 0.5,
		MaxChunks:           3,
		BM25Weight:          0.7,
		VectorWeight:        0.3,
		RRFK:                20,
	}
	out, err := in.Normalize()
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if out != in {
		t.Fatalf("explicit values changed: %+v vs %+v", out, in)
	}
}

func TestNormalizeRejectsUnknownMethods(t *testing.T) {
	_, err := (Settings{SearchMethod: "ann"}).Normalize()
	if !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("expected ErrInvalidSettings for unknown search method, got %v", err)
	}
	_, err = (Settings{SimilarityMethod: "manhattan"}).Normalize()
	if !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("expected ErrInvalidSettings for unknown similarity method, got %v", err)
	}
}

func TestLoadDefaultSettingsFromEnv(t *testing.T) {
	t.Setenv("COGNIFY_SEARCH_METHOD", "bm25")
	t.Setenv("COGNIFY_MAX_CHUNKS", "25")
	t.Setenv("COGNIFY_SIMILARITY_THRESHOLD", "0.45")

	settings := LoadDefaultSettings()
	if settings.SearchMethod != SearchBM25 {
		t.Fatalf("search method not loaded: %+v", settings)
	}
	if settings.MaxChunks != 25 || settings.SimilarityThreshold != 0.45 {
		t.Fatalf("numeric overrides not loaded: %+v", settings)
	}
}

func TestLoadDefaultSettingsIgnoresInvalidEnv(t *testing.T) {
	t.Setenv("COGNIFY_SEARCH_METHOD", "ann")

	settings := LoadDefaultSettings()
	if settings != DefaultSettings() {
		t.Fatalf("invalid env should fall back to defaults: %+v", settings)
	}
}
