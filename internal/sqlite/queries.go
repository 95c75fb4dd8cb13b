// File path: internal/sqlite/queries.go
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cognifyhq/cognify/internal/kb"
)

// ErrNotFound is returned when a lookup targets a missing or deleted row.
var ErrNotFound = errors.New("sqlite: not found")

// InsertDocument records a new document in pending state.
func (s *Store) InsertDocument(ctx context.Context, doc kb.Document) error {
	if doc.ID == "" {
		return errors.New("document id required")
	}
	status := doc.ProcessingStatus
	if status == "" {
		status = kb.StatusPending
	}
	_, err := s.db.ExecContext(ctx, `
                INSERT INTO documents (document_id, title, original_filename, uploaded_by, processing_status)
                VALUES (?, ?, ?, ?, ?)`,
		doc.ID, doc.Title, doc.OriginalFilename, doc.UploadedBy, status)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// DocumentByID fetches a document regardless of owner. Soft-deleted
// documents are treated as missing.
func (s *Store) DocumentByID(ctx context.Context, id string) (kb.Document, error) {
	var row documentRow
	err := s.db.GetContext(ctx, &row, `
                SELECT document_id, title, original_filename, uploaded_by,
                       processing_status, is_deleted, created_at, updated_at
                FROM documents
                WHERE document_id = ? AND is_deleted = 0`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return kb.Document{}, ErrNotFound
	}
	if err != nil {
		return kb.Document{}, fmt.Errorf("select document: %w", err)
	}
	return documentFromRow(row), nil
}

// ListDocuments returns the caller's documents, newest first. An empty
// owner lists every live document.
func (s *Store) ListDocuments(ctx context.Context, owner string) ([]kb.Document, error) {
	query := `
                SELECT document_id, title, original_filename, uploaded_by,
                       processing_status, is_deleted, created_at, updated_at
                FROM documents
                WHERE is_deleted = 0`
	args := []any{}
	if owner != "" {
		query += ` AND uploaded_by = ?`
		args = append(args, owner)
	}
	query += ` ORDER BY created_at DESC`

	var rows []documentRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	docs := make([]kb.Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, documentFromRow(row))
	}
	return docs, nil
}

// SetDocumentStatus transitions a document's processing state.
func (s *Store) SetDocumentStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx, `
                UPDATE documents
                SET processing_status = ?, updated_at = CURRENT_TIMESTAMP
                WHERE document_id = ? AND is_deleted = 0`, status, id)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDeleteDocument marks a document deleted without dropping its rows, so
// the id can never be reused and audit history survives.
func (s *Store) SoftDeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
                UPDATE documents
                SET is_deleted = 1, updated_at = CURRENT_TIMESTAMP
                WHERE document_id = ? AND is_deleted = 0`, id)
	if err != nil {
		return fmt.Errorf("soft delete document: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceChunks atomically swaps a document's chunk set. Reprocessing a
// document must never leave a mix of old and new chunks visible.
func (s *Store) ReplaceChunks(ctx context.Context, documentID string, chunks []kb.Chunk) error {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin replace chunks: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}
	for _, chunk := range chunks {
		if err := insertChunk(ctx, tx, documentID, chunk); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace chunks: %w", err)
	}
	return nil
}

func insertChunk(ctx context.Context, tx *sqlx.Tx, documentID string, chunk kb.Chunk) error {
	var page sql.NullInt64
	if chunk.PageNumber != nil {
		page = sql.NullInt64{Int64: int64(*chunk.PageNumber), Valid: true}
	}
	var blob []byte
	if len(chunk.Embedding) > 0 {
		blob = encodeVector(chunk.Embedding)
	}
	_, err := tx.ExecContext(ctx, `
                INSERT INTO chunks (chunk_id, document_id, ordinal, content, page_number,
                                    section_title, token_count, embedding, embedding_model)
                VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		chunk.ID, documentID, chunk.Ordinal, chunk.Content, page,
		chunk.SectionTitle, chunk.TokenCount, blob, chunk.EmbeddingModel)
	if err != nil {
		return fmt.Errorf("insert chunk %d: %w", chunk.Ordinal, err)
	}
	return nil
}

// ChunksMissingEmbedding lists a document's chunks that still await a
// vector, in ordinal order.
func (s *Store) ChunksMissingEmbedding(ctx context.Context, documentID string) ([]kb.Chunk, error) {
	var rows []chunkRow
	err := s.db.SelectContext(ctx, &rows, `
                SELECT chunk_id, document_id, ordinal, content, page_number,
                       section_title, token_count, embedding, embedding_model, created_at
                FROM chunks
                WHERE document_id = ? AND embedding IS NULL
                ORDER BY ordinal`, documentID)
	if err != nil {
		return nil, fmt.Errorf("select pending chunks: %w", err)
	}
	chunks := make([]kb.Chunk, 0, len(rows))
	for _, row := range rows {
		chunks = append(chunks, chunkFromRow(row))
	}
	return chunks, nil
}

// UpdateChunkEmbedding attaches a vector to a chunk.
func (s *Store) UpdateChunkEmbedding(ctx context.Context, chunkID string, vector []float32, model string) error {
	if len(vector) == 0 {
		return errors.New("empty embedding vector")
	}
	res, err := s.db.ExecContext(ctx, `
                UPDATE chunks SET embedding = ?, embedding_model = ? WHERE chunk_id = ?`,
		encodeVector(vector), model, chunkID)
	if err != nil {
		return fmt.Errorf("update chunk embedding: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CachedEmbedding returns a previously stored vector for the hash/model
// pair, or nil when absent or expired.
func (s *Store) CachedEmbedding(ctx context.Context, textHash, model string) ([]float32, error) {
	var blob []byte
	err := s.db.GetContext(ctx, &blob, `
                SELECT embedding FROM embedding_cache
                WHERE text_hash = ? AND model_name = ? AND expires_at > ?`,
		textHash, model, time.Now().UTC())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select cached embedding: %w", err)
	}
	return decodeVector(blob), nil
}

// StoreCachedEmbedding upserts a vector into the persistent cache with the
// given time to live.
func (s *Store) StoreCachedEmbedding(ctx context.Context, textHash, model string, vector []float32, ttl time.Duration) error {
	if len(vector) == 0 {
		return errors.New("empty embedding vector")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	_, err := s.db.ExecContext(ctx, `
                INSERT INTO embedding_cache (text_hash, model_name, embedding, expires_at)
                VALUES (?, ?, ?, ?)
                ON CONFLICT(text_hash, model_name) DO UPDATE SET
                        embedding = excluded.embedding,
                        expires_at = excluded.expires_at`,
		textHash, model, encodeVector(vector), time.Now().UTC().Add(ttl))
	if err != nil {
		return fmt.Errorf("store cached embedding: %w", err)
	}
	return nil
}

// PruneEmbeddingCache drops expired cache rows and reports how many went.
func (s *Store) PruneEmbeddingCache(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM embedding_cache WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("prune embedding cache: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return removed, nil
}

func documentFromRow(row documentRow) kb.Document {
	return kb.Document{
		ID:               row.DocumentID,
		Title:            row.Title,
		OriginalFilename: row.OriginalFilename,
		UploadedBy:       row.UploadedBy,
		ProcessingStatus: row.ProcessingStatus,
		Deleted:          row.IsDeleted,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}

func chunkFromRow(row chunkRow) kb.Chunk {
	return kb.Chunk{
		ID:             row.ChunkID,
		DocumentID:     row.DocumentID,
		Ordinal:        row.Ordinal,
		Content:        row.Content,
		PageNumber:     pagePointer(row.PageNumber),
		SectionTitle:   row.SectionTitle,
		TokenCount:     row.TokenCount,
		Embedding:      decodeVector(row.Embedding),
		EmbeddingModel: row.EmbeddingModel,
	}
}

// encodeVector packs float32 components little-endian, four bytes apiece.
func encodeVector(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(blob []byte) []float32 {
	if len(blob) < 4 {
		return nil
	}
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector
}
