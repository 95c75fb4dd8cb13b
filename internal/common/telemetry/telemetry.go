// File path: internal/common/telemetry/telemetry.go
package telemetry

import (
	"expvar"
	"sync"
	"time"
)

var (
	initOnce sync.Once

	vectorSearchTotal     *expvar.Int
	vectorSearchLatencyMS *expvar.Int

	keywordSearchTotal     *expvar.Int
	keywordSearchLatencyMS *expvar.Int

	hybridSearchTotal     *expvar.Int
	hybridSearchLatencyMS *expvar.Int

	embedRequestsTotal *expvar.Int
	embedCacheHits     *expvar.Int
	embedFallbacks     *expvar.Int

	contextBuildsTotal *expvar.Int

	ingestDocsTotal   *expvar.Int
	ingestChunksTotal *expvar.Int
)

func ensureInit() {
	initOnce.Do(func() {
		vectorSearchTotal = expvar.NewInt("cognify_vector_search_total")
		vectorSearchLatencyMS = expvar.NewInt("cognify_vector_search_latency_ms")

		keywordSearchTotal = expvar.NewInt("cognify_keyword_search_total")
		keywordSearchLatencyMS = expvar.NewInt("cognify_keyword_search_latency_ms")

		hybridSearchTotal = expvar.NewInt("cognify_hybrid_search_total")
		hybridSearchLatencyMS = expvar.NewInt("cognify_hybrid_search_latency_ms")

		embedRequestsTotal = expvar.NewInt("cognify_embed_requests_total")
		embedCacheHits = expvar.NewInt("cognify_embed_cache_hits")
		embedFallbacks = expvar.NewInt("cognify_embed_fallbacks")

		contextBuildsTotal = expvar.NewInt("cognify_context_builds_total")

		ingestDocsTotal = expvar.NewInt("cognify_ingest_docs_total")
		ingestChunksTotal = expvar.NewInt("cognify_ingest_chunks_total")
	})
}

// RecordSearch tracks a completed search call for the given method.
func RecordSearch(method string, duration time.Duration) {
	ensureInit()
	ms := duration.Milliseconds()
	switch method {
	case "vector":
		vectorSearchTotal.Add(1)
		vectorSearchLatencyMS.Set(ms)
	case "bm25":
		keywordSearchTotal.Add(1)
		keywordSearchLatencyMS.Set(ms)
	default:
		hybridSearchTotal.Add(1)
		hybridSearchLatencyMS.Set(ms)
	}
}

// RecordEmbed tracks an embedding request and whether the in-memory cache
// satisfied it.
func RecordEmbed(cacheHit bool) {
	ensureInit()
	embedRequestsTotal.Add(1)
	if cacheHit {
		embedCacheHits.Add(1)
	}
}

// RecordEmbedFallback tracks a request served by a fallback backend.
func RecordEmbedFallback() {
	ensureInit()
	embedFallbacks.Add(1)
}

// RecordContextBuild tracks a completed context assembly.
func RecordContextBuild() {
	ensureInit()
	contextBuildsTotal.Add(1)
}

// RecordIngest tracks a document ingestion and its chunk count.
func RecordIngest(chunks int) {
	ensureInit()
	ingestDocsTotal.Add(1)
	ingestChunksTotal.Add(int64(chunks))
}
