// Package mongostore adapts MongoDB Atlas Vector Search to the vectorstore
// contract. Chunk records live in a dedicated collection with an Atlas
// `$vectorSearch` index over the vector field (cosine similarity), provisioned
// out of band.
package mongostore

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"pdf-search-service/internal/faults"
	"pdf-search-service/internal/logger"
	"pdf-search-service/internal/vectorstore"
)

const minCandidates = 150

type Store struct {
	collection *mongo.Collection
	indexName  string
	dimension  int

	// per-document serialization of upserts; searches go through Mongo
	// directly and see either the old or the new chunk set.
	locks sync.Map // documentID -> *sync.Mutex
}

func NewStore(collection *mongo.Collection, indexName string, dimension int) *Store {
	return &Store{
		collection: collection,
		indexName:  indexName,
		dimension:  dimension,
	}
}

func (s *Store) lockFor(documentID string) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(documentID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Upsert replaces all chunk records of documentID. MongoDB offers no
// multi-document transaction guarantee on standalone deployments, so the
// adapter snapshots the prior records and restores them if the replacement
// write fails partway.
func (s *Store) Upsert(ctx context.Context, documentID string, records []vectorstore.Record) error {
	if documentID == "" {
		return faults.New(faults.KindStore, "", "document id is empty")
	}
	for _, r := range records {
		if len(r.Vector) != s.dimension {
			return faults.New(faults.KindStore, faults.CodeDimension,
				"vector has %d dims, store expects %d", len(r.Vector), s.dimension)
		}
	}

	mu := s.lockFor(documentID)
	mu.Lock()
	defer mu.Unlock()

	filter := bson.M{"document_id": documentID}

	// Snapshot prior state for rollback.
	cursor, err := s.collection.Find(ctx, filter)
	if err != nil {
		return faults.Wrap(faults.KindStore, faults.CodeStoreUnavailable, err, "failed to read prior chunks")
	}
	var prior []vectorstore.Record
	if err := cursor.All(ctx, &prior); err != nil {
		return faults.Wrap(faults.KindStore, faults.CodeStoreUnavailable, err, "failed to decode prior chunks")
	}

	if _, err := s.collection.DeleteMany(ctx, filter); err != nil {
		return faults.Wrap(faults.KindStore, faults.CodeStoreUnavailable, err, "failed to clear prior chunks")
	}

	if len(records) > 0 {
		docs := make([]interface{}, len(records))
		for i, r := range records {
			docs[i] = r
		}
		if _, err := s.collection.InsertMany(ctx, docs); err != nil {
			s.restore(documentID, prior)
			return faults.Wrap(faults.KindStore, "", err, "failed to insert chunks")
		}
	}
	return nil
}

// restore puts the snapshot back after a failed replacement. Best effort: a
// failure here is logged, not returned, because the original error is the one
// the caller needs.
func (s *Store) restore(documentID string, prior []vectorstore.Record) {
	ctx := context.Background()
	if _, err := s.collection.DeleteMany(ctx, bson.M{"document_id": documentID}); err != nil {
		logger.Error("rollback: failed to clear partial write", "document_id", documentID, "error", err)
		return
	}
	if len(prior) == 0 {
		return
	}
	docs := make([]interface{}, len(prior))
	for i, r := range prior {
		docs[i] = r
	}
	if _, err := s.collection.InsertMany(ctx, docs); err != nil {
		logger.Error("rollback: failed to restore prior chunks", "document_id", documentID, "error", err)
	}
}

func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]vectorstore.SearchResult, error) {
	if topK <= 0 {
		return nil, faults.New(faults.KindConfig, "", "top_k must be positive, got %d", topK)
	}
	if len(vector) != s.dimension {
		return nil, faults.New(faults.KindStore, faults.CodeDimension,
			"query vector has %d dims, store expects %d", len(vector), s.dimension)
	}

	total, err := s.collection.EstimatedDocumentCount(ctx)
	if err != nil {
		return nil, faults.Wrap(faults.KindStore, faults.CodeStoreUnavailable, err, "vector store unreachable")
	}
	if total == 0 {
		return nil, faults.New(faults.KindStore, faults.CodeEmptyStore, "vector store is empty")
	}

	numCandidates := topK * 15
	if numCandidates < minCandidates {
		numCandidates = minCandidates
	}

	pipeline := mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.M{
			"index":         s.indexName,
			"path":          "vector",
			"queryVector":   vector,
			"numCandidates": numCandidates,
			"limit":         topK,
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":         0,
			"document_id": 1,
			"chunk_index": 1,
			"text":        1,
			"score":       bson.M{"$meta": "vectorSearchScore"},
		}}},
	}

	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, faults.Wrap(faults.KindStore, faults.CodeStoreUnavailable, err, "vector search failed")
	}

	var rows []struct {
		DocumentID string  `bson:"document_id"`
		ChunkIndex int     `bson:"chunk_index"`
		Text       string  `bson:"text"`
		Score      float64 `bson:"score"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, faults.Wrap(faults.KindStore, "", err, "failed to decode search results")
	}

	results := make([]vectorstore.SearchResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, vectorstore.SearchResult{
			Record: vectorstore.Record{
				DocumentID: row.DocumentID,
				ChunkIndex: row.ChunkIndex,
				Text:       row.Text,
			},
			Score: row.Score,
		})
	}
	return results, nil
}

func (s *Store) DeleteDocument(ctx context.Context, documentID string) error {
	mu := s.lockFor(documentID)
	mu.Lock()
	defer mu.Unlock()

	if _, err := s.collection.DeleteMany(ctx, bson.M{"document_id": documentID}); err != nil {
		return faults.Wrap(faults.KindStore, "", err, "failed to delete document chunks")
	}
	return nil
}
