package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"docqa/internal/extract"
	"docqa/internal/ingest"
	"docqa/internal/rag"
	"docqa/internal/storage"
	storage_mocks "docqa/internal/storage/mocks"
	vectorstore_mocks "docqa/internal/vectorstore/mocks"
)

type stubExtractor struct {
	result *extract.Result
	err    error
}

func (s *stubExtractor) Process(_ context.Context, _, _ string) (*extract.Result, error) {
	return s.result, s.err
}

type stubEmbedder struct{}

func (stubEmbedder) EmbedText(_ context.Context, _ string) ([]float32, error) {
	return []float32{0.1}, nil
}

func (s stubEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i], _ = s.EmbedText(ctx, texts[i])
	}
	return out, nil
}

type documentsFixture struct {
	handler     *DocumentsHandler
	router      *chi.Mux
	docRepo     *storage_mocks.MockDocumentStore
	vectorStore *vectorstore_mocks.MockVectorStore
	engine      *fakeRAGEngine
}

func newDocumentsFixture(t *testing.T, ctrl *gomock.Controller, extractor ingest.TextExtractor) *documentsFixture {
	t.Helper()

	docRepo := storage_mocks.NewMockDocumentStore(ctrl)
	vectorStore := vectorstore_mocks.NewMockVectorStore(ctrl)
	pipeline := ingest.NewPipeline(docRepo, extractor, stubEmbedder{}, vectorStore,
		"test-collection", t.TempDir(), ingest.NewChunker(1000, 200))
	engine := &fakeRAGEngine{summaryResp: rag.SummaryResponse{Summary: "a summary", Success: true}}

	h := NewDocumentsHandler(pipeline, docRepo, engine)
	r := chi.NewRouter()
	r.Post("/api/documents", h.Upload)
	r.Get("/api/documents", h.List)
	r.Post("/api/documents/process-all", h.ProcessAll)
	r.Post("/api/documents/{name}/process", h.Process)
	r.Get("/api/documents/{name}/summary", h.Summary)
	r.Delete("/api/documents/{name}", h.Delete)

	return &documentsFixture{handler: h, router: r, docRepo: docRepo, vectorStore: vectorStore, engine: engine}
}

// multipartUpload builds a multipart body with one file part.
func multipartUpload(t *testing.T, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

func (f *documentsFixture) do(method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestUpload(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newDocumentsFixture(t, ctrl, &stubExtractor{})

	f.docRepo.EXPECT().GetByDigest(gomock.Any(), gomock.Any()).Return(nil, storage.ErrNotFound)
	f.docRepo.EXPECT().GetByName(gomock.Any(), "report.pdf").Return(nil, storage.ErrNotFound)
	f.docRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)

	body, ct := multipartUpload(t, "report.pdf", "application/pdf", []byte("%PDF-1.4 fake content"))
	w := f.do(http.MethodPost, "/api/documents", body, ct)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	var resp DocumentResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Name != "report.pdf" || resp.Status != storage.StatusUploaded {
		t.Errorf("response = %+v", resp)
	}
}

func TestUpload_UnsupportedType(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newDocumentsFixture(t, ctrl, &stubExtractor{})

	body, ct := multipartUpload(t, "binary.exe", "application/x-msdownload", []byte("MZ"))
	w := f.do(http.MethodPost, "/api/documents", body, ct)

	if w.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", w.Code)
	}
}

func TestUpload_MIMEFallbackFromExtension(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newDocumentsFixture(t, ctrl, &stubExtractor{})

	f.docRepo.EXPECT().GetByDigest(gomock.Any(), gomock.Any()).Return(nil, storage.ErrNotFound)
	f.docRepo.EXPECT().GetByName(gomock.Any(), "report.pdf").Return(nil, storage.ErrNotFound)
	f.docRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)

	// Generic content type; the .pdf extension decides the format.
	body, ct := multipartUpload(t, "report.pdf", "application/octet-stream", []byte("%PDF-1.4"))
	w := f.do(http.MethodPost, "/api/documents", body, ct)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
}

func TestUpload_Duplicate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newDocumentsFixture(t, ctrl, &stubExtractor{})

	f.docRepo.EXPECT().GetByDigest(gomock.Any(), gomock.Any()).
		Return(&storage.DocumentRecord{Name: "original.pdf"}, nil)

	body, ct := multipartUpload(t, "copy.pdf", "application/pdf", []byte("same bytes"))
	w := f.do(http.MethodPost, "/api/documents", body, ct)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
}

func TestUpload_MissingFileField(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newDocumentsFixture(t, ctrl, &stubExtractor{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("other", "value"); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	w := f.do(http.MethodPost, "/api/documents", &buf, mw.FormDataContentType())
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestListDocuments(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newDocumentsFixture(t, ctrl, &stubExtractor{})

	f.docRepo.EXPECT().List(gomock.Any()).Return([]*storage.DocumentRecord{
		{Name: "a.pdf", Status: storage.StatusIndexed, ChunkCount: 3},
		{Name: "b.md", Status: storage.StatusUploaded},
	}, nil)

	w := f.do(http.MethodGet, "/api/documents", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Documents []DocumentResponse `json:"documents"`
		Count     int                `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Count != 2 || len(resp.Documents) != 2 {
		t.Errorf("response = %+v, want 2 documents", resp)
	}
	if resp.Documents[0].Name != "a.pdf" || resp.Documents[0].ChunkCount != 3 {
		t.Errorf("first document = %+v", resp.Documents[0])
	}
}

func TestProcessDocument(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newDocumentsFixture(t, ctrl, &stubExtractor{result: &extract.Result{Text: "document content"}})

	doc := &storage.DocumentRecord{Name: "doc.pdf", Digest: "abc", Status: storage.StatusUploaded}
	f.docRepo.EXPECT().GetByName(gomock.Any(), "doc.pdf").Return(doc, nil)
	f.docRepo.EXPECT().UpdateStatus(gomock.Any(), "doc.pdf", storage.StatusProcessing, "").Return(nil)
	f.vectorStore.EXPECT().DeleteByFilter(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.vectorStore.EXPECT().Upsert(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.docRepo.EXPECT().SetIndexed(gomock.Any(), "doc.pdf", 1).Return(nil)

	indexed := &storage.DocumentRecord{Name: "doc.pdf", Digest: "abc", Status: storage.StatusIndexed, ChunkCount: 1}
	f.docRepo.EXPECT().GetByName(gomock.Any(), "doc.pdf").Return(indexed, nil)

	w := f.do(http.MethodPost, "/api/documents/doc.pdf/process", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp DocumentResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Status != storage.StatusIndexed || resp.ChunkCount != 1 {
		t.Errorf("response = %+v, want the reindexed record", resp)
	}
}

func TestProcessDocument_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newDocumentsFixture(t, ctrl, &stubExtractor{})

	f.docRepo.EXPECT().GetByName(gomock.Any(), "missing.pdf").Return(nil, storage.ErrNotFound)

	w := f.do(http.MethodPost, "/api/documents/missing.pdf/process", nil, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestProcessDocument_ExtractionFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newDocumentsFixture(t, ctrl, &stubExtractor{err: fmt.Errorf("corrupt file")})

	doc := &storage.DocumentRecord{Name: "doc.pdf", Status: storage.StatusUploaded}
	f.docRepo.EXPECT().GetByName(gomock.Any(), "doc.pdf").Return(doc, nil)
	f.docRepo.EXPECT().UpdateStatus(gomock.Any(), "doc.pdf", storage.StatusProcessing, "").Return(nil)
	f.docRepo.EXPECT().UpdateStatus(gomock.Any(), "doc.pdf", storage.StatusFailedParsing, gomock.Any()).Return(nil)

	w := f.do(http.MethodPost, "/api/documents/doc.pdf/process", nil, "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}
}

func TestProcessAllDocuments(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newDocumentsFixture(t, ctrl, &stubExtractor{})

	f.docRepo.EXPECT().List(gomock.Any()).Return([]*storage.DocumentRecord{
		{Name: "done.pdf", Status: storage.StatusIndexed},
	}, nil)

	w := f.do(http.MethodPost, "/api/documents/process-all", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp ingest.BatchResult
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", resp.Skipped)
	}
}

func TestDeleteDocument(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newDocumentsFixture(t, ctrl, &stubExtractor{})

	doc := &storage.DocumentRecord{Name: "doc.pdf", Path: "/nonexistent/doc.pdf"}
	f.docRepo.EXPECT().GetByName(gomock.Any(), "doc.pdf").Return(doc, nil)
	f.vectorStore.EXPECT().DeleteByFilter(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.docRepo.EXPECT().Delete(gomock.Any(), "doc.pdf").Return(nil)

	w := f.do(http.MethodDelete, "/api/documents/doc.pdf", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp["deleted"] != "doc.pdf" {
		t.Errorf("response = %v", resp)
	}
}

func TestDeleteDocument_VectorStoreWarning(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newDocumentsFixture(t, ctrl, &stubExtractor{})

	doc := &storage.DocumentRecord{Name: "doc.pdf", Path: "/nonexistent/doc.pdf"}
	f.docRepo.EXPECT().GetByName(gomock.Any(), "doc.pdf").Return(doc, nil)
	f.vectorStore.EXPECT().DeleteByFilter(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("qdrant unavailable"))
	f.docRepo.EXPECT().Delete(gomock.Any(), "doc.pdf").Return(nil)

	w := f.do(http.MethodDelete, "/api/documents/doc.pdf", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 despite the vector store failure", w.Code)
	}

	var resp struct {
		Deleted  string   `json:"deleted"`
		Warnings []string `json:"warnings"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Deleted != "doc.pdf" {
		t.Errorf("deleted = %q", resp.Deleted)
	}
	if len(resp.Warnings) != 1 || !strings.Contains(resp.Warnings[0], "vector deletion failed") {
		t.Errorf("warnings = %v, want the vector deletion warning", resp.Warnings)
	}
}

func TestDeleteDocument_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newDocumentsFixture(t, ctrl, &stubExtractor{})

	f.docRepo.EXPECT().GetByName(gomock.Any(), "missing.pdf").Return(nil, storage.ErrNotFound)

	w := f.do(http.MethodDelete, "/api/documents/missing.pdf", nil, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestDocumentSummary(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newDocumentsFixture(t, ctrl, &stubExtractor{})

	f.docRepo.EXPECT().GetByName(gomock.Any(), "doc.pdf").
		Return(&storage.DocumentRecord{Name: "doc.pdf"}, nil)

	w := f.do(http.MethodGet, "/api/documents/doc.pdf/summary", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp rag.SummaryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Summary != "a summary" || !resp.Success {
		t.Errorf("response = %+v", resp)
	}
}

func TestDocumentSummary_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newDocumentsFixture(t, ctrl, &stubExtractor{})

	f.docRepo.EXPECT().GetByName(gomock.Any(), "missing.pdf").Return(nil, storage.ErrNotFound)

	w := f.do(http.MethodGet, "/api/documents/missing.pdf/summary", nil, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
