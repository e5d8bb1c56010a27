package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"pdf-search-service/internal/faults"
	"pdf-search-service/models"
)

// DocumentRecorder persists document records and their ingest status so
// clients can observe pipeline progress and dedup repeated uploads.
type DocumentRecorder interface {
	Create(ctx context.Context, doc *models.Document) error
	SetStatus(ctx context.Context, id, status string) error
	MarkStored(ctx context.Context, id string, chunkCount, charCount, pages int) error
	MarkFailed(ctx context.Context, id, errorKind, errorMsg string) error
	FindByHash(ctx context.Context, hash string) (*models.Document, error)
}

// MongoDocuments implements DocumentRecorder on the documents collection.
type MongoDocuments struct {
	collection *mongo.Collection
}

func NewMongoDocuments(collection *mongo.Collection) *MongoDocuments {
	return &MongoDocuments{collection: collection}
}

func (m *MongoDocuments) Create(ctx context.Context, doc *models.Document) error {
	_, err := m.collection.InsertOne(ctx, doc)
	return faults.Wrap(faults.KindStore, "", err, "failed to create document record")
}

func (m *MongoDocuments) SetStatus(ctx context.Context, id, status string) error {
	now := time.Now()
	update := bson.M{"status": status}
	if status == models.StatusExtracted {
		update["extracted_at"] = now
	}
	_, err := m.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	return faults.Wrap(faults.KindStore, "", err, "failed to update document status")
}

func (m *MongoDocuments) MarkStored(ctx context.Context, id string, chunkCount, charCount, pages int) error {
	now := time.Now()
	_, err := m.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":      models.StatusStored,
		"chunk_count": chunkCount,
		"char_count":  charCount,
		"pages":       pages,
		"stored_at":   now,
	}})
	return faults.Wrap(faults.KindStore, "", err, "failed to mark document stored")
}

func (m *MongoDocuments) MarkFailed(ctx context.Context, id, errorKind, errorMsg string) error {
	_, err := m.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":        models.StatusFailed,
		"error_kind":    errorKind,
		"error_message": errorMsg,
	}})
	return faults.Wrap(faults.KindStore, "", err, "failed to mark document failed")
}

func (m *MongoDocuments) FindByHash(ctx context.Context, hash string) (*models.Document, error) {
	var doc models.Document
	err := m.collection.FindOne(ctx, bson.M{
		"content_hash": hash,
		"status":       models.StatusStored,
	}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, faults.Wrap(faults.KindStore, "", err, "failed to look up document by hash")
	}
	return &doc, nil
}
