// File path: internal/ingest/pipeline.go
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/cognifyhq/cognify/internal/common"
	"github.com/cognifyhq/cognify/internal/common/telemetry"
	"github.com/cognifyhq/cognify/internal/kb"
)

// Catalog is the persistence surface the pipeline needs. The sqlite store
// satisfies it.
type Catalog interface {
	InsertDocument(ctx context.Context, doc kb.Document) error
	DocumentByID(ctx context.Context, id string) (kb.Document, error)
	SetDocumentStatus(ctx context.Context, id, status string) error
	SoftDeleteDocument(ctx context.Context, id string) error
	ReplaceChunks(ctx context.Context, documentID string, chunks []kb.Chunk) error
	ChunksMissingEmbedding(ctx context.Context, documentID string) ([]kb.Chunk, error)
	UpdateChunkEmbedding(ctx context.Context, chunkID string, vector []float32, model string) error
}

// Embedder produces vectors with model provenance.
type Embedder interface {
	EmbedWithModel(ctx context.Context, text string) ([]float32, string, error)
}

// Pipeline turns raw document text into searchable chunks. Chunking and
// persistence are synchronous; per-chunk embedding fans out over a bounded
// worker pool. A chunk whose embedding cannot be produced stays keyword
// searchable, so an embedding outage degrades vector recall without
// failing ingestion.
type Pipeline struct {
	catalog  Catalog
	chunker  *kb.Chunker
	embedder Embedder
	workers  int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers sets the embedding fan-out width.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithChunker overrides the default chunker.
func WithChunker(c *kb.Chunker) Option {
	return func(p *Pipeline) {
		if c != nil {
			p.chunker = c
		}
	}
}

// NewPipeline constructs a Pipeline over the catalog and embedder.
func NewPipeline(catalog Catalog, embedder Embedder, opts ...Option) (*Pipeline, error) {
	if catalog == nil {
		return nil, errors.New("catalog required")
	}
	if embedder == nil {
		return nil, errors.New("embedder required")
	}
	p := &Pipeline{
		catalog:  catalog,
		chunker:  kb.NewChunker(0, 0),
		embedder: embedder,
		workers:  4,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Create registers a new pending document and returns it.
func (p *Pipeline) Create(ctx context.Context, title, filename, owner string) (kb.Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return kb.Document{}, errors.New("document title required")
	}
	doc := kb.Document{
		ID:               uuid.NewString(),
		Title:            title,
		OriginalFilename: filename,
		UploadedBy:       owner,
		ProcessingStatus: kb.StatusPending,
	}
	if err := p.catalog.InsertDocument(ctx, doc); err != nil {
		return kb.Document{}, err
	}
	return doc, nil
}

// Process chunks the document text, persists the chunk set, and embeds each
// chunk. The document lands in completed state on success and failed state
// when persistence breaks partway.
func (p *Pipeline) Process(ctx context.Context, documentID, text string, pages []kb.Page) error {
	logger := common.Logger()
	if err := p.catalog.SetDocumentStatus(ctx, documentID, kb.StatusProcessing); err != nil {
		return err
	}
	err := p.process(ctx, documentID, text, pages)
	if err != nil {
		logger.Error("ingest: processing failed", "document_id", documentID, "error", err)
		if statusErr := p.catalog.SetDocumentStatus(ctx, documentID, kb.StatusFailed); statusErr != nil {
			logger.Error("ingest: failed-state transition failed", "document_id", documentID, "error", statusErr)
		}
		return err
	}
	if err := p.catalog.SetDocumentStatus(ctx, documentID, kb.StatusCompleted); err != nil {
		return err
	}
	return nil
}

func (p *Pipeline) process(ctx context.Context, documentID, text string, pages []kb.Page) error {
	var chunks []kb.Chunk
	if len(pages) > 0 {
		chunks = p.chunker.ChunkPages(pages)
	} else {
		chunks = p.chunker.ChunkText(text, nil)
	}
	for i := range chunks {
		chunks[i].ID = uuid.NewString()
		chunks[i].DocumentID = documentID
	}
	if err := p.catalog.ReplaceChunks(ctx, documentID, chunks); err != nil {
		return fmt.Errorf("persist chunks: %w", err)
	}
	if err := p.embedChunks(ctx, chunks); err != nil {
		return err
	}
	telemetry.RecordIngest(len(chunks))
	common.Logger().Info("ingest: document processed", "document_id", documentID, "chunks", len(chunks))
	return nil
}

// Ingest is the synchronous convenience path: create, process, and return
// the final document record.
func (p *Pipeline) Ingest(ctx context.Context, title, filename, owner, text string, pages []kb.Page) (kb.Document, error) {
	doc, err := p.Create(ctx, title, filename, owner)
	if err != nil {
		return kb.Document{}, err
	}
	if err := p.Process(ctx, doc.ID, text, pages); err != nil {
		return kb.Document{}, err
	}
	return p.catalog.DocumentByID(ctx, doc.ID)
}

// Reprocess embeds any chunks of the document that still lack a vector,
// typically after an embedding outage during the original ingestion.
func (p *Pipeline) Reprocess(ctx context.Context, documentID string) error {
	if _, err := p.catalog.DocumentByID(ctx, documentID); err != nil {
		return err
	}
	if err := p.catalog.SetDocumentStatus(ctx, documentID, kb.StatusProcessing); err != nil {
		return err
	}
	pending, err := p.catalog.ChunksMissingEmbedding(ctx, documentID)
	if err != nil {
		p.catalog.SetDocumentStatus(ctx, documentID, kb.StatusFailed)
		return err
	}
	if err := p.embedChunks(ctx, pending); err != nil {
		p.catalog.SetDocumentStatus(ctx, documentID, kb.StatusFailed)
		return err
	}
	return p.catalog.SetDocumentStatus(ctx, documentID, kb.StatusCompleted)
}

// Delete marks the document deleted; its chunks drop out of every search
// immediately.
func (p *Pipeline) Delete(ctx context.Context, documentID string) error {
	return p.catalog.SoftDeleteDocument(ctx, documentID)
}

// embedChunks fans the chunk set out over the worker pool. Only persistence
// errors abort; an unavailable embedding backend skips the chunk.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []kb.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	logger := common.Logger()
	sem := make(chan struct{}, p.workers)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for _, chunk := range chunks {
		wg.Add(1)
		sem <- struct{}{}
		go func(chunk kb.Chunk) {
			defer wg.Done()
			defer func() { <-sem }()
			vector, model, err := p.embedder.EmbedWithModel(ctx, chunk.Content)
			if err != nil || len(vector) == 0 {
				logger.Warn("ingest: chunk left unembedded", "chunk_id", chunk.ID, "error", err)
				return
			}
			if err := p.catalog.UpdateChunkEmbedding(ctx, chunk.ID, vector, model); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("store embedding for chunk %s: %w", chunk.ID, err)
				}
				mu.Unlock()
			}
		}(chunk)
	}
	wg.Wait()
	return firstErr
}
