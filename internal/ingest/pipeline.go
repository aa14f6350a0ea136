package ingest

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"docqa/internal/contextutil"
	"docqa/internal/extract"
	"docqa/internal/llm"
	"docqa/internal/storage"
	"docqa/internal/vectorstore"
)

// chunksPerPage approximates which source page a chunk came from when the
// extraction method does not preserve page boundaries.
const chunksPerPage = 3

// TextExtractor converts a stored file into extracted text.
// Implemented by extract.Processor.
type TextExtractor interface {
	Process(ctx context.Context, path, mimeType string) (*extract.Result, error)
}

// Pipeline orchestrates upload, extraction, chunking, embedding and indexing
// of documents into SQLite and the vector store.
type Pipeline struct {
	docRepo     storage.DocumentStore
	extractor   TextExtractor
	embedder    llm.Embedder
	vectorStore vectorstore.VectorStore
	collection  string
	dataDir     string
	chunker     *Chunker
	logger      *slog.Logger
}

// NewPipeline creates a new processing pipeline.
func NewPipeline(
	docRepo storage.DocumentStore,
	extractor TextExtractor,
	embedder llm.Embedder,
	vectorStore vectorstore.VectorStore,
	collection string,
	dataDir string,
	chunker *Chunker,
) *Pipeline {
	return &Pipeline{
		docRepo:     docRepo,
		extractor:   extractor,
		embedder:    embedder,
		vectorStore: vectorStore,
		collection:  collection,
		dataDir:     dataDir,
		chunker:     chunker,
		logger:      slog.Default(),
	}
}

// pointID maps a chunk key ("{digest}_{index}") onto a deterministic UUID,
// since the vector store only accepts UUID point identifiers. Reprocessing a
// document therefore overwrites its old points instead of duplicating them.
// The raw key is kept in the payload under chunk_key.
func pointID(chunkKey string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(chunkKey)).String()
}

// Upload stores the raw bytes on disk and registers the document.
// Byte-identical content and name collisions are both rejected with
// ErrDuplicateDocument; nothing is written in that case.
func (p *Pipeline) Upload(ctx context.Context, filename string, content []byte, mimeType string) (*storage.DocumentRecord, error) {
	logger := contextutil.LoggerFromContext(ctx)

	digest := fmt.Sprintf("%x", sha256.Sum256(content))

	existing, err := p.docRepo.GetByDigest(ctx, digest)
	if err != nil && err != storage.ErrNotFound {
		return nil, fmt.Errorf("failed to check for duplicate content: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: identical content already uploaded as %q", ErrDuplicateDocument, existing.Name)
	}

	existing, err = p.docRepo.GetByName(ctx, filename)
	if err != nil && err != storage.ErrNotFound {
		return nil, fmt.Errorf("failed to check for duplicate name: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: a document named %q already exists", ErrDuplicateDocument, filename)
	}

	path := filepath.Join(p.dataDir, filename)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	record := &storage.DocumentRecord{
		Name:       filename,
		Path:       path,
		Digest:     digest,
		SizeBytes:  int64(len(content)),
		MIMEType:   mimeType,
		Status:     storage.StatusUploaded,
		UploadedAt: time.Now().UTC(),
	}
	if err := p.docRepo.Insert(ctx, record); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to register document: %w", err)
	}

	logger.InfoContext(ctx, "document uploaded", "name", filename, "size_bytes", record.SizeBytes, "mime_type", mimeType)
	return record, nil
}

// Process runs extraction, chunking, embedding and indexing for one document.
// The record's status reflects the outcome: indexed on success, failed_parsing
// when extraction produces nothing usable, failed_indexing when embedding or
// the vector store fails. A chunk whose embedding fails is dropped; the
// document only fails when no chunk survives.
func (p *Pipeline) Process(ctx context.Context, name string) error {
	logger := contextutil.LoggerFromContext(ctx)

	doc, err := p.docRepo.GetByName(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to load document %s: %w", name, err)
	}

	if err := p.docRepo.UpdateStatus(ctx, name, storage.StatusProcessing, ""); err != nil {
		return fmt.Errorf("failed to mark document processing: %w", err)
	}

	result, err := p.extractor.Process(ctx, doc.Path, doc.MIMEType)
	if err != nil {
		p.fail(ctx, name, storage.StatusFailedParsing, err)
		return fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	chunks := p.chunker.Split(result.Text)
	if len(chunks) == 0 {
		err := fmt.Errorf("no text content extracted")
		p.fail(ctx, name, storage.StatusFailedParsing, err)
		return fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	// Embed chunk by chunk so one bad chunk does not sink the document.
	points := make([]vectorstore.Point, 0, len(chunks))
	for _, chunk := range chunks {
		vec, err := p.embedder.EmbedText(ctx, chunk.Text)
		if err != nil {
			logger.WarnContext(ctx, "dropping chunk with failed embedding", "name", name, "chunk_index", chunk.Index, "error", err)
			continue
		}

		chunkKey := fmt.Sprintf("%s_%d", doc.Digest, chunk.Index)
		points = append(points, vectorstore.Point{
			ID:   pointID(chunkKey),
			Vec:  vec,
			Text: chunk.Text,
			Meta: map[string]any{
				"document_name": doc.Name,
				"chunk_index":   chunk.Index,
				"chunk_key":     chunkKey,
				"page":          chunk.Index/chunksPerPage + 1,
				"uploaded_at":   doc.UploadedAt.Format(time.RFC3339),
			},
		})
	}

	if len(points) == 0 {
		err := fmt.Errorf("all %d chunk embeddings failed", len(chunks))
		p.fail(ctx, name, storage.StatusFailedIndexing, err)
		return fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	// Clear stale points from any earlier processing run before upserting.
	if err := p.vectorStore.DeleteByFilter(ctx, p.collection, map[string]any{"document_name": doc.Name}); err != nil {
		logger.WarnContext(ctx, "failed to clear old points before reindex", "name", name, "error", err)
	}

	if err := p.vectorStore.Upsert(ctx, p.collection, points); err != nil {
		p.fail(ctx, name, storage.StatusFailedIndexing, err)
		return fmt.Errorf("%w: %v", ErrIndexingFailed, err)
	}

	if err := p.docRepo.SetIndexed(ctx, name, len(points)); err != nil {
		return fmt.Errorf("failed to mark document indexed: %w", err)
	}

	logger.InfoContext(ctx, "document processed",
		"name", name,
		"method", result.Method,
		"chunks", len(chunks),
		"indexed", len(points),
	)
	return nil
}

// BatchResult summarizes a ProcessAll run.
type BatchResult struct {
	Processed int               `json:"processed"`
	Failed    int               `json:"failed"`
	Skipped   int               `json:"skipped"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// ProcessAll processes every document not yet indexed. Failures are recorded
// per document and do not stop the batch.
func (p *Pipeline) ProcessAll(ctx context.Context) (*BatchResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	docs, err := p.docRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	result := &BatchResult{Errors: make(map[string]string)}
	for _, doc := range docs {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if doc.Status == storage.StatusIndexed {
			result.Skipped++
			continue
		}

		if err := p.Process(ctx, doc.Name); err != nil {
			result.Failed++
			result.Errors[doc.Name] = err.Error()
			logger.ErrorContext(ctx, "failed to process document", "name", doc.Name, "error", err)
			continue
		}
		result.Processed++
	}

	logger.InfoContext(ctx, "batch processing completed",
		"processed", result.Processed,
		"failed", result.Failed,
		"skipped", result.Skipped,
	)
	return result, nil
}

// DeleteResult reports what a Delete actually removed. Vector and file
// removal are best effort once the registry row is gone; their failures land
// in Warnings so callers can see the orphaned leftovers instead of a silent
// partial delete.
type DeleteResult struct {
	Name     string   `json:"deleted"`
	Warnings []string `json:"warnings,omitempty"`
}

// Delete removes a document's vectors, its registry record and its stored
// file. The registry is the source of truth and its deletion must succeed;
// vector and file removal failures are reported as warnings.
func (p *Pipeline) Delete(ctx context.Context, name string) (*DeleteResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	doc, err := p.docRepo.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", name, err)
	}

	result := &DeleteResult{Name: name}

	if err := p.vectorStore.DeleteByFilter(ctx, p.collection, map[string]any{"document_name": name}); err != nil {
		logger.WarnContext(ctx, "failed to delete document vectors", "name", name, "error", err)
		result.Warnings = append(result.Warnings, fmt.Sprintf("vector deletion failed, points may be orphaned: %v", err))
	}

	if err := p.docRepo.Delete(ctx, name); err != nil {
		return nil, fmt.Errorf("failed to delete document record: %w", err)
	}

	if err := os.Remove(doc.Path); err != nil && !os.IsNotExist(err) {
		logger.WarnContext(ctx, "failed to remove stored file", "path", doc.Path, "error", err)
		result.Warnings = append(result.Warnings, fmt.Sprintf("stored file removal failed: %v", err))
	}

	logger.InfoContext(ctx, "document deleted", "name", name, "warnings", len(result.Warnings))
	return result, nil
}

// fail records a failure status; the status update itself failing is only
// logged since the original error matters more to the caller.
func (p *Pipeline) fail(ctx context.Context, name, status string, cause error) {
	logger := contextutil.LoggerFromContext(ctx)
	if err := p.docRepo.UpdateStatus(ctx, name, status, cause.Error()); err != nil {
		logger.ErrorContext(ctx, "failed to record failure status", "name", name, "status", status, "error", err)
	}
}
