// File path: internal/sqlite/types.go
package sqlite

import (
	"database/sql"
	"time"
)

// documentRow mirrors the documents table.
type documentRow struct {
	DocumentID       string    `db:"document_id"`
	Title            string    `db:"title"`
	OriginalFilename string    `db:"original_filename"`
	UploadedBy       string    `db:"uploaded_by"`
	ProcessingStatus string    `db:"processing_status"`
	IsDeleted        bool      `db:"is_deleted"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// chunkRow mirrors the chunks table.
type chunkRow struct {
	ChunkID        string        `db:"chunk_id"`
	DocumentID     string        `db:"document_id"`
	Ordinal        int           `db:"ordinal"`
	Content        string        `db:"content"`
	PageNumber     sql.NullInt64 `db:"page_number"`
	SectionTitle   string        `db:"section_title"`
	TokenCount     int           `db:"token_count"`
	Embedding      []byte        `db:"embedding"`
	EmbeddingModel string        `db:"embedding_model"`
	CreatedAt      time.Time     `db:"created_at"`
}

// candidateRow carries the chunk plus denormalized document metadata needed
// to build a search hit without a second round trip.
type candidateRow struct {
	ChunkID          string        `db:"chunk_id"`
	DocumentID       string        `db:"document_id"`
	Content          string        `db:"content"`
	PageNumber       sql.NullInt64 `db:"page_number"`
	SectionTitle     string        `db:"section_title"`
	DocumentTitle    string        `db:"document_title"`
	DocumentFilename string        `db:"document_filename"`
	Embedding        []byte        `db:"embedding"`
}

// matchRow is a candidateRow scored by the full-text index.
type matchRow struct {
	ChunkID          string        `db:"chunk_id"`
	DocumentID       string        `db:"document_id"`
	Content          string        `db:"content"`
	PageNumber       sql.NullInt64 `db:"page_number"`
	SectionTitle     string        `db:"section_title"`
	DocumentTitle    string        `db:"document_title"`
	DocumentFilename string        `db:"document_filename"`
	Score            float64       `db:"score"`
}

func pagePointer(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	page := int(v.Int64)
	return &page
}
