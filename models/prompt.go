package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Prompt is a versioned system-prompt record. At most one prompt is active at
// a time; activation deactivates all others.
type Prompt struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Content     string             `bson:"content" json:"content"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	IsActive    bool               `bson:"is_active" json:"is_active"`
	Version     string             `bson:"version" json:"version"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// PromptRequest is the create/update body for prompt endpoints.
type PromptRequest struct {
	Name        string `json:"name"`
	Content     string `json:"content"`
	Description string `json:"description"`
	Version     string `json:"version"`
}

// DefaultPromptContent is served when no active prompt exists in the store.
const DefaultPromptContent = `You are a document search assistant. Answer only from the indexed PDF documents.

Rules:
1. Restricted knowledge base: answer exclusively from the stored document chunks; never use outside knowledge or invent content. If the indexed documents do not cover the question, say so plainly.
2. Always cite which document a passage came from.
3. Start with a short, direct summary of the findings, then list the supporting passages in descending relevance order.`
