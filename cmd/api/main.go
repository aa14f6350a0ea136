package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"docqa/internal/config"
	"docqa/internal/extract"
	"docqa/internal/http"
	"docqa/internal/ingest"
	"docqa/internal/llm"
	"docqa/internal/ocr"
	"docqa/internal/rag"
	"docqa/internal/storage"
	"docqa/internal/vectorstore"
	"docqa/internal/viz"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	docRepo := storage.NewDocumentRepo(db)

	// Initialize Qdrant vector store
	ctx := context.Background()

	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}

	// Ensure collection exists with correct vector size
	if err := vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.QdrantVectorSize); err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}
	slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)

	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize, cfg.RequestTimeout)

	// Generation and vision clients share the endpoint but not the model.
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName, cfg.RequestTimeout)
	visionClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.VisionModelName, cfg.RequestTimeout)

	ocrClient := ocr.NewClient(visionClient, cfg.OCRLanguage, ocr.NewFitzRenderer())

	processor := extract.NewProcessor(extract.Options{
		OCR:                 ocrClient,
		OCRTriggerThreshold: cfg.OCRTriggerThreshold,
		OCRMaxPages:         cfg.OCRMaxPages,
	})

	pipeline := ingest.NewPipeline(
		docRepo,
		processor,
		embedder,
		vectorStore,
		cfg.QdrantCollection,
		cfg.DataDir,
		ingest.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
	)

	ragEngine := rag.NewEngine(
		embedder,
		vectorStore,
		cfg.QdrantCollection,
		llmClient,
		cfg.LLMModelName,
	)
	slog.Info("RAG engine initialized", "model", cfg.LLMModelName)

	vizExtractor := viz.NewExtractor(llmClient, cfg.LLMModelName)

	deps := &http.Deps{
		Pipeline:     pipeline,
		DocRepo:      docRepo,
		RAGEngine:    ragEngine,
		VizExtractor: vizExtractor,
		HealthCheck:  vectorStore,
		DB:           db,
		Collection:   cfg.QdrantCollection,
	}
	router := http.NewRouter(deps)

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName, "vision_model", cfg.VisionModelName)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
