package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"docqa/internal/contextutil"
	"docqa/internal/extract"
	"docqa/internal/ingest"
	"docqa/internal/rag"
	"docqa/internal/storage"
)

// maxUploadBytes caps the multipart form parsed into memory.
const maxUploadBytes = 64 << 20 // 64 MiB

// DocumentsHandler handles the document lifecycle endpoints.
type DocumentsHandler struct {
	pipeline  *ingest.Pipeline
	docRepo   storage.DocumentStore
	ragEngine rag.Engine
}

// NewDocumentsHandler creates a new DocumentsHandler.
func NewDocumentsHandler(pipeline *ingest.Pipeline, docRepo storage.DocumentStore, ragEngine rag.Engine) *DocumentsHandler {
	return &DocumentsHandler{
		pipeline:  pipeline,
		docRepo:   docRepo,
		ragEngine: ragEngine,
	}
}

// DocumentResponse mirrors a registry record for the HTTP layer.
type DocumentResponse struct {
	Name       string `json:"name"`
	Digest     string `json:"digest"`
	SizeBytes  int64  `json:"size_bytes"`
	MIMEType   string `json:"mime_type"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	ChunkCount int    `json:"chunk_count"`
	UploadedAt string `json:"uploaded_at"`
}

func toDocumentResponse(doc *storage.DocumentRecord) DocumentResponse {
	return DocumentResponse{
		Name:       doc.Name,
		Digest:     doc.Digest,
		SizeBytes:  doc.SizeBytes,
		MIMEType:   doc.MIMEType,
		Status:     doc.Status,
		Error:      doc.Error,
		ChunkCount: doc.ChunkCount,
		UploadedAt: doc.UploadedAt.Format(time.RFC3339),
	}
}

// Upload handles POST /api/documents. It expects a multipart form with a
// "file" field and registers the document without processing it.
func (h *DocumentsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		logger.WarnContext(ctx, "invalid multipart form", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		logger.ErrorContext(ctx, "failed to read upload", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read upload")
		return
	}
	if len(content) == 0 {
		writeError(w, http.StatusBadRequest, "Empty file")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(header.Filename)); byExt != "" {
			mimeType = byExt
		}
	}
	if extract.FormatFromMIME(mimeType) == extract.FormatUnknown {
		writeError(w, http.StatusUnsupportedMediaType, fmt.Sprintf("Unsupported file type: %s", mimeType))
		return
	}

	name := filepath.Base(header.Filename)
	record, err := h.pipeline.Upload(ctx, name, content, mimeType)
	if err != nil {
		if errors.Is(err, ingest.ErrDuplicateDocument) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		logger.ErrorContext(ctx, "upload failed", "name", name, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to store document")
		return
	}

	writeJSON(w, http.StatusCreated, toDocumentResponse(record))
}

// List handles GET /api/documents.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	docs, err := h.docRepo.List(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list documents", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}

	out := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toDocumentResponse(doc))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"documents": out,
		"count":     len(out),
	})
}

// Process handles POST /api/documents/{name}/process.
func (h *DocumentsHandler) Process(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	name := chi.URLParam(r, "name")

	if err := h.pipeline.Process(ctx, name); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			writeError(w, http.StatusNotFound, fmt.Sprintf("Document not found: %s", name))
		case errors.Is(err, ingest.ErrExtraction):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, ingest.ErrEmbeddingFailed), errors.Is(err, ingest.ErrIndexingFailed):
			writeError(w, http.StatusBadGateway, err.Error())
		default:
			logger.ErrorContext(ctx, "processing failed", "name", name, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to process document")
		}
		return
	}

	doc, err := h.docRepo.GetByName(ctx, name)
	if err != nil {
		logger.ErrorContext(ctx, "failed to reload document after processing", "name", name, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load document")
		return
	}

	writeJSON(w, http.StatusOK, toDocumentResponse(doc))
}

// ProcessAll handles POST /api/documents/process-all.
func (h *DocumentsHandler) ProcessAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	result, err := h.pipeline.ProcessAll(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "batch processing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to process documents")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Delete handles DELETE /api/documents/{name}.
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	name := chi.URLParam(r, "name")

	result, err := h.pipeline.Delete(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Document not found: %s", name))
			return
		}
		logger.ErrorContext(ctx, "delete failed", "name", name, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete document")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Summary handles GET /api/documents/{name}/summary.
func (h *DocumentsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	name := chi.URLParam(r, "name")

	if _, err := h.docRepo.GetByName(ctx, name); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Document not found: %s", name))
			return
		}
		logger.ErrorContext(ctx, "failed to load document", "name", name, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load document")
		return
	}

	summary, err := h.ragEngine.Summarize(ctx, name)
	if err != nil {
		logger.ErrorContext(ctx, "summary failed", "name", name, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to summarize document")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
