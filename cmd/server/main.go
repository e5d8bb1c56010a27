package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"pdf-search-service/internal/ai"
	"pdf-search-service/internal/config"
	"pdf-search-service/internal/logger"
	"pdf-search-service/internal/telemetry"
	"pdf-search-service/internal/vectorstore"
	"pdf-search-service/internal/vectorstore/memory"
	"pdf-search-service/internal/vectorstore/mongostore"
	"pdf-search-service/middleware"
	"pdf-search-service/routes"
	"pdf-search-service/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	// Connect to MongoDB
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()
	db := mongoClient.Database(cfg.DBName)

	// Tracing is optional; without an OTLP endpoint spans stay local no-ops
	if cfg.OTLPEndpoint != "" {
		shutdown, err := telemetry.InitTracer("pdf-search-service", cfg.OTLPEndpoint)
		if err != nil {
			log.Fatal("Failed to initialize tracer:", err)
		}
		defer shutdown()
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to initialize metrics:", err)
	}

	// Redis is optional: it backs the embedding cache and rate limiting,
	// and the service runs without either
	var embedCache *ai.Cache
	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, embedding cache and rate limiting disabled", "error", err)
		rdb = nil
	} else if rdb != nil {
		defer rdb.Close()
	}
	if rdb != nil && cfg.EmbedCacheTTL > 0 {
		embedCache = ai.NewCache(rdb, time.Duration(cfg.EmbedCacheTTL)*time.Second)
	}

	embedder, err := ai.NewClient(context.Background(), cfg, embedCache, metrics)
	if err != nil {
		log.Fatal("Failed to initialize embedding client:", err)
	}
	defer embedder.Close()

	var store vectorstore.Store
	switch cfg.VectorStoreDriver {
	case "memory":
		store = memory.NewStore(cfg.VectorDimensions)
	default:
		store = mongostore.NewStore(db.Collection("document_chunks"), cfg.VectorIndexName, cfg.VectorDimensions)
	}

	chunker, err := services.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		log.Fatal("Failed to build chunker:", err)
	}

	documents := services.NewMongoDocuments(db.Collection("documents"))
	ingestor := services.NewIngestor(services.NewPDFExtractor(cfg), chunker, embedder, store, documents, metrics)
	searchSvc := services.NewSearchService(embedder, store, cfg.DefaultTopK, metrics)
	promptSvc := services.NewPromptService(db.Collection("prompts"))

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.EnrichTrace())
	router.Use(middleware.MetricsMiddleware(metrics))
	if rdb != nil {
		router.Use(middleware.RateLimitMiddleware(rdb, cfg))
	}

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Requested-With"}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	// Setup routes
	routes.SetupIngestRoutes(router, cfg, ingestor)
	routes.SetupSearchRoutes(router, searchSvc)
	routes.SetupPromptRoutes(router, promptSvc)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port, "vector_store", cfg.VectorStoreDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
