// Package vectorstore defines the persistence contract for chunk embeddings.
// Two implementations exist: mongostore (Atlas Vector Search) for production
// and memory (brute-force cosine) for local runs and tests.
package vectorstore

import "context"

// Record is the persisted unit: one chunk of one document plus its vector.
type Record struct {
	DocumentID string    `bson:"document_id" json:"document_id"`
	ChunkIndex int       `bson:"chunk_index" json:"chunk_index"`
	Text       string    `bson:"text" json:"text"`
	Vector     []float32 `bson:"vector" json:"-"`
}

// SearchResult is a record with its similarity score, computed per query and
// never persisted.
type SearchResult struct {
	Record
	Score float64 `json:"score"`
}

// Store persists chunk/vector records and performs nearest-neighbor search.
//
// Upsert atomically replaces all prior records for the given document: after
// a successful call only the new records are retrievable, after a failed call
// the prior state is intact. Concurrent upserts for the same document are
// serialized by the implementation; search never observes a half-replaced
// document.
//
// Search returns up to topK records ordered by descending cosine similarity,
// ties broken by insertion order.
type Store interface {
	Upsert(ctx context.Context, documentID string, records []Record) error
	Search(ctx context.Context, vector []float32, topK int) ([]SearchResult, error)
	DeleteDocument(ctx context.Context, documentID string) error
}
