// File path: internal/embedding/config.go
package embedding

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config controls the embedding provider chain and its caches.
type Config struct {
	OllamaBaseURL   string        `json:"ollama_base_url"`
	PrimaryModel    string        `json:"primary_model"`
	FallbackModel   string        `json:"fallback_model"`
	OpenAIAPIKey    string        `json:"openai_api_key"`
	OpenAIModel     string        `json:"openai_model"`
	RequestTimeout  time.Duration `json:"request_timeout"`
	CacheTTL        time.Duration `json:"cache_ttl"`
	CacheSize       int           `json:"cache_size"`
	PersistCacheTTL time.Duration `json:"persist_cache_ttl"`
}

// Merge overlays non-zero fields from other onto the receiver.
func (c Config) Merge(other Config) Config {
	merged := c
	if strings.TrimSpace(other.OllamaBaseURL) != "" {
		merged.OllamaBaseURL = strings.TrimSpace(other.OllamaBaseURL)
	}
	if strings.TrimSpace(other.PrimaryModel) != "" {
		merged.PrimaryModel = strings.TrimSpace(other.PrimaryModel)
	}
	if strings.TrimSpace(other.FallbackModel) != "" {
		merged.FallbackModel = strings.TrimSpace(other.FallbackModel)
	}
	if strings.TrimSpace(other.OpenAIAPIKey) != "" {
		merged.OpenAIAPIKey = strings.TrimSpace(other.OpenAIAPIKey)
	}
	if strings.TrimSpace(other.OpenAIModel) != "" {
		merged.OpenAIModel = strings.TrimSpace(other.OpenAIModel)
	}
	if other.RequestTimeout > 0 {
		merged.RequestTimeout = other.RequestTimeout
	}
	if other.CacheTTL > 0 {
		merged.CacheTTL = other.CacheTTL
	}
	if other.CacheSize > 0 {
		merged.CacheSize = other.CacheSize
	}
	if other.PersistCacheTTL > 0 {
		merged.PersistCacheTTL = other.PersistCacheTTL
	}
	return merged
}

// LoadConfig resolves configuration from an optional JSON file named by
// EMBEDDING_CONFIG_FILE, overlaid with individual environment variables.
func LoadConfig() (Config, error) {
	cfg := Config{}
	if path := strings.TrimSpace(os.Getenv("EMBEDDING_CONFIG_FILE")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read embedding config: %w", err)
		}
		var fileCfg Config
		if err := json.Unmarshal(data, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("parse embedding config: %w", err)
		}
		cfg = cfg.Merge(fileCfg)
	}
	cfg = cfg.Merge(envConfig())
	cfg.applyDefaults()
	return cfg, nil
}

func envConfig() Config {
	cfg := Config{
		OllamaBaseURL: os.Getenv("OLLAMA_BASE_URL"),
		PrimaryModel:  os.Getenv("EMBEDDING_MODEL"),
		FallbackModel: os.Getenv("EMBEDDING_FALLBACK_MODEL"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   os.Getenv("OPENAI_EMBEDDING_MODEL"),
	}
	if v := strings.TrimSpace(os.Getenv("EMBEDDING_TIMEOUT")); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.RequestTimeout = parsed
		}
	}
	if v := strings.TrimSpace(os.Getenv("EMBEDDING_CACHE_TTL")); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.CacheTTL = parsed
		}
	}
	if v := strings.TrimSpace(os.Getenv("EMBEDDING_CACHE_SIZE")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.CacheSize = parsed
		}
	}
	if v := strings.TrimSpace(os.Getenv("EMBEDDING_PERSIST_CACHE_TTL")); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.PersistCacheTTL = parsed
		}
	}
	return cfg
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.OllamaBaseURL) == "" {
		c.OllamaBaseURL = "http://localhost:11434"
	}
	if strings.TrimSpace(c.PrimaryModel) == "" {
		c.PrimaryModel = "nomic-embed-text"
	}
	if strings.TrimSpace(c.FallbackModel) == "" {
		c.FallbackModel = "all-minilm"
	}
	if strings.TrimSpace(c.OpenAIModel) == "" {
		c.OpenAIModel = "text-embedding-3-small"
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 15 * time.Minute
	}
	if c.CacheSize <= 0 {
		c.CacheSize = 2048
	}
	if c.PersistCacheTTL <= 0 {
		c.PersistCacheTTL = 24 * time.Hour
	}
}
