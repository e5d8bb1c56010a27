package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI    string
	DBName      string
	Port        string
	GinMode     string
	CORSOrigins []string

	// Upload handling
	MaxFileSize    int64
	AllowedTypes   []string
	FileStorageDir string
	FetchTimeout   int // seconds, per URL download attempt

	// Chunking
	ChunkSize    int
	ChunkOverlap int

	// Embeddings
	GeminiAPIKey          string
	GoogleEmbeddingsModel string
	EmbedTimeout          int // seconds, per embedding batch
	EmbedCacheTTL         int // seconds, 0 disables the Redis cache

	// Vector store
	VectorStoreDriver string // "mongo" (Atlas Vector Search) or "memory"
	VectorIndexName   string
	VectorDimensions  int
	DefaultTopK       int

	// Redis (optional: embedding cache + rate limiting; empty URL disables both)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	RateLimitReqs   int
	RateLimitWindow int // seconds

	// Tracing (empty endpoint disables the exporter)
	OTLPEndpoint string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017/pdf_search"),
		DBName:      getEnv("DB_NAME", "pdf_search"),
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),

		MaxFileSize:    getEnvInt64("MAX_FILE_SIZE", 20971520), // 20MB
		AllowedTypes:   strings.Split(getEnv("ALLOWED_FILE_TYPES", "application/pdf"), ","),
		FileStorageDir: getEnv("FILE_STORAGE_DIR", "./storage"),
		FetchTimeout:   getEnvInt("FETCH_TIMEOUT", 30),

		ChunkSize:    getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),

		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		EmbedTimeout:          getEnvInt("EMBED_TIMEOUT", 60),
		EmbedCacheTTL:         getEnvInt("EMBED_CACHE_TTL", 86400),

		VectorStoreDriver: getEnv("VECTOR_STORE", "mongo"),
		VectorIndexName:   getEnv("MONGODB_VECTOR_INDEX", "chunk_vectors"),
		VectorDimensions:  getEnvInt("VECTOR_DIM", 768),
		DefaultTopK:       getEnvInt("DEFAULT_TOP_K", 5),

		RedisURL:      getEnv("REDIS_URL", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		OTLPEndpoint: getEnv("OTLP_ENDPOINT", ""),
	}

	// Validate required fields
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	if cfg.ChunkSize <= 0 || cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("invalid chunking config: size=%d overlap=%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}

	switch cfg.VectorStoreDriver {
	case "mongo", "memory":
	default:
		return nil, fmt.Errorf("unknown VECTOR_STORE driver: %s", cfg.VectorStoreDriver)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
