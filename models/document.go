package models

import "time"

// Ingest status constants; one per pipeline stage plus the two terminal
// outcomes. A document only ever moves forward.
const (
	StatusReceived  = "received"
	StatusExtracted = "extracted"
	StatusChunked   = "chunked"
	StatusEmbedded  = "embedded"
	StatusStored    = "stored"
	StatusFailed    = "failed"
)

// Origin types for a document source
const (
	OriginUpload = "upload"
	OriginURL    = "url"
)

// Document represents a logical source PDF and its ingestion state.
type Document struct {
	ID          string     `bson:"_id" json:"id"`
	Origin      string     `bson:"origin" json:"origin"` // original filename or source URL
	OriginType  string     `bson:"origin_type" json:"origin_type"`
	ContentHash string     `bson:"content_hash,omitempty" json:"content_hash,omitempty"` // sha256, for dedup
	Status      string     `bson:"status" json:"status"`
	ErrorKind   string     `bson:"error_kind,omitempty" json:"error_kind,omitempty"`
	ErrorMsg    string     `bson:"error_message,omitempty" json:"error_message,omitempty"`
	ChunkCount  int        `bson:"chunk_count" json:"chunk_count"`
	CharCount   int        `bson:"char_count" json:"char_count"`
	Pages       int        `bson:"pages,omitempty" json:"pages,omitempty"`
	ReceivedAt  time.Time  `bson:"received_at" json:"received_at"`
	ExtractedAt *time.Time `bson:"extracted_at,omitempty" json:"extracted_at,omitempty"`
	StoredAt    *time.Time `bson:"stored_at,omitempty" json:"stored_at,omitempty"`
}

// Chunk is a contiguous span of a document's text, the unit of embedding and
// retrieval. Index is the 0-based position within the document.
type Chunk struct {
	DocumentID string `json:"document_id"`
	Index      int    `json:"index"`
	Text       string `json:"text"`
	CharCount  int    `json:"char_count"`
}

// UploadResponse is returned by both upload endpoints.
type UploadResponse struct {
	DocumentID string `json:"document_id"`
	ChunkCount int    `json:"chunk_count"`
	Duplicate  bool   `json:"duplicate,omitempty"`
}

// SearchRequest is the POST /api/search body.
type SearchRequest struct {
	Query string `json:"query"`
	TopK  *int   `json:"top_k"`
}

// SearchResultItem is one ranked hit in the search response.
type SearchResultItem struct {
	Text     string            `json:"text"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata"`
}

// UploadURLRequest is the POST /api/upload-url body.
type UploadURLRequest struct {
	URL string `json:"url"`
}
