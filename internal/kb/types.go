// File path: internal/kb/types.go
package kb

import "time"

// Document processing lifecycle states.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Document represents an ingested source document. Chunks belong to exactly
// one document and are replaced wholesale when the document is reprocessed.
type Document struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	OriginalFilename string    `json:"original_filename,omitempty"`
	UploadedBy       string    `json:"uploaded_by,omitempty"`
	ProcessingStatus string    `json:"processing_status"`
	Deleted          bool      `json:"deleted,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
	UpdatedAt        time.Time `json:"updated_at,omitempty"`
}

// Chunk is the atomic retrievable unit: a bounded slice of a document's
// extracted text. Ordinals are unique within a document and assigned
// monotonically at creation. The embedding is populated asynchronously and
// may be absent until the embedding pipeline catches up.
type Chunk struct {
	ID             string    `json:"id"`
	DocumentID     string    `json:"document_id"`
	Ordinal        int       `json:"ordinal"`
	Content        string    `json:"content"`
	PageNumber     *int      `json:"page_number,omitempty"`
	SectionTitle   string    `json:"section_title,omitempty"`
	TokenCount     int       `json:"token_count,omitempty"`
	Embedding      []float32 `json:"embedding,omitempty"`
	EmbeddingModel string    `json:"embedding_model,omitempty"`
}

// Page pairs a page number with its extracted text, used when chunking
// paginated sources so chunk provenance survives.
type Page struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}
