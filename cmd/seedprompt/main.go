package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pdf-search-service/internal/config"
	"pdf-search-service/models"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to MongoDB
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())

	promptsCollection := client.Database(cfg.DBName).Collection("prompts")

	// Check if the default prompt already exists
	var existing models.Prompt
	err = promptsCollection.FindOne(context.Background(), bson.M{"name": "default"}).Decode(&existing)
	if err == nil {
		fmt.Println("Default prompt already exists")
		fmt.Printf("   ID: %s\n", existing.ID.Hex())
		fmt.Printf("   Active: %v\n", existing.IsActive)
		os.Exit(0)
	}

	content := os.Getenv("DEFAULT_PROMPT_CONTENT")
	if content == "" {
		content = models.DefaultPromptContent
	}

	now := time.Now()
	prompt := models.Prompt{
		ID:          primitive.NewObjectID(),
		Name:        "default",
		Content:     content,
		Description: "Built-in document search prompt",
		IsActive:    true,
		Version:     "1.0",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	result, err := promptsCollection.InsertOne(context.Background(), prompt)
	if err != nil {
		log.Fatalf("Failed to create default prompt: %v", err)
	}

	fmt.Println("Default prompt created and activated")
	fmt.Printf("   ID: %s\n", result.InsertedID.(primitive.ObjectID).Hex())
	fmt.Printf("   Manage prompts at /api/prompts\n")
}
