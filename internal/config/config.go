package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	LLMBaseURL         string
	LLMModelName       string
	LLMAPIKey          string
	EmbeddingBaseURL   string
	EmbeddingModelName string
	VisionModelName    string
	OCRLanguage        string

	DBPath  string
	DataDir string

	QdrantURL        string
	QdrantCollection string
	QdrantVectorSize int

	ChunkSize    int
	ChunkOverlap int

	// OCRTriggerThreshold is the average extracted characters per PDF page
	// below which the OCR path is taken instead of the text layer.
	OCRTriggerThreshold int
	// OCRMaxPages caps how many pages of a scanned PDF are transcribed.
	OCRMaxPages int

	RequestTimeout time.Duration

	APIPort   string
	LogLevel  slog.Level
	LogFormat string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it is loaded
// automatically; variables already set in the environment take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load() // Try current directory

	// Walk up a few levels so the server can be started from a subdirectory.
	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		LLMBaseURL:         getEnv("LLM_BASE_URL", "https://api.openai.com"),
		LLMModelName:       getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMAPIKey:          getEnv("LLM_API_KEY", ""),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "https://api.openai.com"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "text-embedding-3-small"),
		VisionModelName:    getEnv("VISION_MODEL", "gpt-4o"),
		OCRLanguage:        getEnv("OCR_LANGUAGE", "Arabic and English"),
		DBPath:             getEnv("DB_PATH", "./data/docqa.db"),
		DataDir:            getEnv("DATA_DIR", "./data/uploads"),
		QdrantURL:          getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "documents"),
		APIPort:            getEnv("API_PORT", "9000"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
	}

	var parseErr error
	cfg.ChunkSize, parseErr = getEnvInt("CHUNK_SIZE", 1000)
	if parseErr != nil {
		return nil, parseErr
	}
	cfg.ChunkOverlap, parseErr = getEnvInt("CHUNK_OVERLAP", 200)
	if parseErr != nil {
		return nil, parseErr
	}
	cfg.OCRTriggerThreshold, parseErr = getEnvInt("OCR_TRIGGER_THRESHOLD", 30)
	if parseErr != nil {
		return nil, parseErr
	}
	cfg.OCRMaxPages, parseErr = getEnvInt("OCR_MAX_PAGES", 20)
	if parseErr != nil {
		return nil, parseErr
	}

	timeoutSecs, parseErr := getEnvInt("REQUEST_TIMEOUT_SECONDS", 120)
	if parseErr != nil {
		return nil, parseErr
	}
	if timeoutSecs <= 0 {
		return nil, fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be greater than 0")
	}
	cfg.RequestTimeout = time.Duration(timeoutSecs) * time.Second

	// The vector size must match the embedding model output; there is no safe
	// default because a mismatch silently corrupts the collection.
	vectorSizeStr := getEnv("QDRANT_VECTOR_SIZE", "")
	if vectorSizeStr == "" {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE is required")
	}
	vectorSize, err := strconv.Atoi(vectorSizeStr)
	if err != nil {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be a valid integer: %w", err)
	}
	if vectorSize <= 0 {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be greater than 0")
	}
	cfg.QdrantVectorSize = vectorSize

	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("CHUNK_SIZE must be greater than 0")
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE)")
	}
	if cfg.OCRMaxPages <= 0 {
		return nil, fmt.Errorf("OCR_MAX_PAGES must be greater than 0")
	}

	switch getEnv("LOG_LEVEL", "info") {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "info":
		cfg.LogLevel = slog.LevelInfo
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		return nil, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}

	// Create directories for the database file and uploaded documents.
	for _, dir := range []string{filepath.Dir(cfg.DBPath), cfg.DataDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}
