package services

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pdf-search-service/internal/faults"
	"pdf-search-service/models"
)

// PromptService manages system-prompt records in the prompts collection.
type PromptService struct {
	collection *mongo.Collection
}

func NewPromptService(collection *mongo.Collection) *PromptService {
	return &PromptService{collection: collection}
}

// Create inserts a new prompt. Name and content are required; version
// defaults to "1.0".
func (s *PromptService) Create(ctx context.Context, req *models.PromptRequest) (*models.Prompt, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Content) == "" {
		return nil, faults.New(faults.KindConfig, "", "prompt name and content are required")
	}

	version := req.Version
	if version == "" {
		version = "1.0"
	}
	now := time.Now()
	prompt := &models.Prompt{
		ID:          primitive.NewObjectID(),
		Name:        req.Name,
		Content:     req.Content,
		Description: req.Description,
		IsActive:    false,
		Version:     version,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.collection.InsertOne(ctx, prompt)
	if mongo.IsDuplicateKeyError(err) {
		return nil, faults.New(faults.KindConfig, "", "a prompt named %q already exists", req.Name)
	}
	if err != nil {
		return nil, faults.Wrap(faults.KindStore, "", err, "failed to create prompt")
	}
	return prompt, nil
}

func (s *PromptService) GetByID(ctx context.Context, id string) (*models.Prompt, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, faults.New(faults.KindConfig, "", "invalid prompt id %q", id)
	}

	var prompt models.Prompt
	err = s.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&prompt)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, faults.Wrap(faults.KindStore, "", err, "failed to fetch prompt")
	}
	return &prompt, nil
}

// GetActive returns the currently active prompt, or nil when none is active.
func (s *PromptService) GetActive(ctx context.Context) (*models.Prompt, error) {
	var prompt models.Prompt
	err := s.collection.FindOne(ctx, bson.M{"is_active": true}).Decode(&prompt)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, faults.Wrap(faults.KindStore, "", err, "failed to fetch active prompt")
	}
	return &prompt, nil
}

// ActiveContent returns the active prompt's content, falling back to the
// built-in default when no prompt is active.
func (s *PromptService) ActiveContent(ctx context.Context) (string, error) {
	prompt, err := s.GetActive(ctx)
	if err != nil {
		return "", err
	}
	if prompt == nil {
		return models.DefaultPromptContent, nil
	}
	return prompt.Content, nil
}

// List returns all prompts, newest first.
func (s *PromptService) List(ctx context.Context) ([]models.Prompt, error) {
	cursor, err := s.collection.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, faults.Wrap(faults.KindStore, "", err, "failed to list prompts")
	}

	prompts := []models.Prompt{}
	if err := cursor.All(ctx, &prompts); err != nil {
		return nil, faults.Wrap(faults.KindStore, "", err, "failed to decode prompts")
	}
	return prompts, nil
}

// Update replaces a prompt's editable fields. Returns false when the prompt
// does not exist.
func (s *PromptService) Update(ctx context.Context, id string, req *models.PromptRequest) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, faults.New(faults.KindConfig, "", "invalid prompt id %q", id)
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Content) == "" {
		return false, faults.New(faults.KindConfig, "", "prompt name and content are required")
	}

	update := bson.M{
		"name":        req.Name,
		"content":     req.Content,
		"description": req.Description,
		"updated_at":  time.Now(),
	}
	if req.Version != "" {
		update["version"] = req.Version
	}

	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": update})
	if err != nil {
		return false, faults.Wrap(faults.KindStore, "", err, "failed to update prompt")
	}
	return result.MatchedCount > 0, nil
}

// Delete removes a prompt. Returns false when the prompt does not exist.
func (s *PromptService) Delete(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, faults.New(faults.KindConfig, "", "invalid prompt id %q", id)
	}

	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, faults.Wrap(faults.KindStore, "", err, "failed to delete prompt")
	}
	return result.DeletedCount > 0, nil
}

// SetActive activates one prompt and deactivates all others.
func (s *PromptService) SetActive(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, faults.New(faults.KindConfig, "", "invalid prompt id %q", id)
	}

	if _, err := s.collection.UpdateMany(ctx, bson.M{}, bson.M{"$set": bson.M{"is_active": false}}); err != nil {
		return false, faults.Wrap(faults.KindStore, "", err, "failed to deactivate prompts")
	}

	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": oid},
		bson.M{"$set": bson.M{"is_active": true, "updated_at": time.Now()}})
	if err != nil {
		return false, faults.Wrap(faults.KindStore, "", err, "failed to activate prompt")
	}
	return result.MatchedCount > 0, nil
}
