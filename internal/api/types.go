// File path: internal/api/types.go
package api

import (
	"time"

	"github.com/cognifyhq/cognify/internal/kb"
	"github.com/cognifyhq/cognify/internal/rag"
)

type searchRequest struct {
	Query            string   `json:"query"`
	Limit            int      `json:"limit"`
	Threshold        float64  `json:"threshold"`
	SearchMethod     string   `json:"search_method"`
	SimilarityMethod string   `json:"similarity_method"`
	BM25Weight       float64  `json:"bm25_weight"`
	VectorWeight     float64  `json:"vector_weight"`
	RRFK             int      `json:"rrf_k"`
	IncludeMetadata  *bool    `json:"include_metadata,omitempty"`
	DocumentIDs      []string `json:"document_ids,omitempty"`
	UserID           string   `json:"user_id,omitempty"`
}

type searchResponse struct {
	Query        string             `json:"query"`
	Results      []rag.SearchResult `json:"results"`
	Total        int                `json:"total"`
	SearchTimeMS int64              `json:"search_time_ms"`
	SearchMethod string             `json:"search_method"`
}

type contextRequest struct {
	Query               string   `json:"query"`
	MaxChunks           int      `json:"max_chunks"`
	MaxContextLength    int      `json:"max_context_length"`
	SimilarityThreshold float64  `json:"similarity_threshold"`
	SearchMethod        string   `json:"search_method"`
	DocumentIDs         []string `json:"document_ids,omitempty"`
	UserID              string   `json:"user_id,omitempty"`
}

type contextResponse struct {
	Query         string             `json:"query"`
	Context       string             `json:"context"`
	Sources       []rag.SearchResult `json:"sources"`
	TotalSources  int                `json:"total_sources"`
	ContextLength int                `json:"context_length"`
}

type createDocumentRequest struct {
	Title    string    `json:"title"`
	Filename string    `json:"filename"`
	Content  string    `json:"content"`
	Pages    []kb.Page `json:"pages,omitempty"`
	UserID   string    `json:"user_id,omitempty"`
	Async    bool      `json:"async,omitempty"`
}

type documentResponse struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	OriginalFilename string    `json:"original_filename,omitempty"`
	UploadedBy       string    `json:"uploaded_by,omitempty"`
	ProcessingStatus string    `json:"processing_status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type documentListResponse struct {
	Documents []documentResponse `json:"documents"`
	Total     int                `json:"total"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Prompt       string        `json:"prompt"`
	History      []chatMessage `json:"history,omitempty"`
	UseRAG       *bool         `json:"use_rag,omitempty"`
	SearchMethod string        `json:"search_method,omitempty"`
	DocumentIDs  []string      `json:"document_ids,omitempty"`
	UserID       string        `json:"user_id,omitempty"`
}

type chatResponse struct {
	Response string             `json:"response"`
	Sources  []rag.SearchResult `json:"sources,omitempty"`
}

func documentView(doc kb.Document) documentResponse {
	return documentResponse{
		ID:               doc.ID,
		Title:            doc.Title,
		OriginalFilename: doc.OriginalFilename,
		UploadedBy:       doc.UploadedBy,
		ProcessingStatus: doc.ProcessingStatus,
		CreatedAt:        doc.CreatedAt,
		UpdatedAt:        doc.UpdatedAt,
	}
}
