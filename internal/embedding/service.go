// File path: internal/embedding/service.go
package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/cognifyhq/cognify/internal/common"
	"github.com/cognifyhq/cognify/internal/common/telemetry"
)

// PersistentCache stores vectors across process restarts. The sqlite store
// satisfies it.
type PersistentCache interface {
	CachedEmbedding(ctx context.Context, textHash, model string) ([]float32, error)
	StoreCachedEmbedding(ctx context.Context, textHash, model string, vector []float32, ttl time.Duration) error
}

// remoteEmbedder is one backend in the provider chain.
type remoteEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type provider struct {
	name  string
	model string
	embed remoteEmbedder
}

type ollamaProvider struct {
	client *ollamaClient
	model  string
}

func (p *ollamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return p.client.Embed(ctx, p.model, text)
}

// Service resolves text to vectors through a chain of providers fronted by
// two caches: an in-process LRU and the persistent store. The first backend
// to answer wins. When every backend fails the service reports no vector
// rather than an error, so retrieval degrades to empty results instead of
// failing the request.
type Service struct {
	cfg     Config
	memory  *vectorCache
	persist PersistentCache
	chain   []provider
}

// NewService builds the provider chain from the configuration. persist may
// be nil; the in-memory cache then stands alone.
func NewService(cfg Config, persist PersistentCache) *Service {
	cfg.applyDefaults()
	ollama := newOllamaClient(cfg.OllamaBaseURL, cfg.RequestTimeout)
	chain := []provider{
		{name: "ollama", model: cfg.PrimaryModel, embed: &ollamaProvider{client: ollama, model: cfg.PrimaryModel}},
	}
	if cfg.FallbackModel != "" && cfg.FallbackModel != cfg.PrimaryModel {
		chain = append(chain, provider{
			name:  "ollama-fallback",
			model: cfg.FallbackModel,
			embed: &ollamaProvider{client: ollama, model: cfg.FallbackModel},
		})
	}
	if strings.TrimSpace(cfg.OpenAIAPIKey) != "" {
		chain = append(chain, provider{
			name:  "openai",
			model: cfg.OpenAIModel,
			embed: newOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel),
		})
	}
	return &Service{
		cfg:     cfg,
		memory:  newVectorCache(cfg.CacheSize, cfg.CacheTTL),
		persist: persist,
		chain:   chain,
	}
}

// Embed returns a vector for the text, or (nil, nil) when no backend can
// serve the request.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	vector, _, err := s.EmbedWithModel(ctx, text)
	return vector, err
}

// EmbedWithModel additionally reports which model produced the vector, so
// ingestion can record provenance alongside the stored embedding.
func (s *Service) EmbedWithModel(ctx context.Context, text string) ([]float32, string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, "", nil
	}
	logger := common.Logger()
	hash := textHash(text)

	if vector, ok := s.memory.Get(hash); ok {
		telemetry.RecordEmbed(true)
		return vector, s.cfg.PrimaryModel, nil
	}

	for i, p := range s.chain {
		if s.persist != nil {
			if vector, err := s.persist.CachedEmbedding(ctx, hash, p.model); err == nil && len(vector) > 0 {
				telemetry.RecordEmbed(true)
				s.memory.Set(hash, vector)
				return vector, p.model, nil
			}
		}
		vector, err := p.embed.Embed(ctx, text)
		if err != nil {
			logger.Warn("embedding: provider failed", "provider", p.name, "model", p.model, "error", err)
			if i < len(s.chain)-1 {
				telemetry.RecordEmbedFallback()
			}
			continue
		}
		telemetry.RecordEmbed(false)
		s.memory.Set(hash, vector)
		if s.persist != nil {
			if err := s.persist.StoreCachedEmbedding(ctx, hash, p.model, vector, s.cfg.PersistCacheTTL); err != nil {
				logger.Warn("embedding: persist cache write failed", "error", err)
			}
		}
		return vector, p.model, nil
	}

	logger.Warn("embedding: all providers exhausted", "providers", len(s.chain))
	return nil, "", nil
}

func textHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
