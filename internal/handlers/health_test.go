package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"docqa/internal/storage"
)

type fakeChecker struct {
	exists bool
	err    error
}

func (f *fakeChecker) CollectionExists(_ context.Context, _ string) (bool, error) {
	return f.exists, f.err
}

func healthCheck(t *testing.T, checker *fakeChecker) (*httptest.ResponseRecorder, HealthResponse) {
	t.Helper()

	db, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	h := NewHealthHandler(checker, db, "test-collection")
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	return w, resp
}

func TestHealth(t *testing.T) {
	w, resp := healthCheck(t, &fakeChecker{exists: true})

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if resp.Status != "healthy" {
		t.Errorf("Status = %s, want healthy", resp.Status)
	}
	if resp.Checks["database"] != "ok" || resp.Checks["vector_store"] != "ok" {
		t.Errorf("Checks = %v", resp.Checks)
	}
	if len(resp.Issues) != 0 {
		t.Errorf("Issues = %v, want none", resp.Issues)
	}
}

func TestHealth_VectorStoreDown(t *testing.T) {
	w, resp := healthCheck(t, &fakeChecker{err: errors.New("connection refused")})

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
	if resp.Status != "unhealthy" {
		t.Errorf("Status = %s, want unhealthy", resp.Status)
	}
	if resp.Checks["vector_store"] != "error" {
		t.Errorf("Checks = %v", resp.Checks)
	}
	if resp.Checks["database"] != "ok" {
		t.Errorf("database check = %s, should stay ok", resp.Checks["database"])
	}
}

func TestHealth_MissingCollection(t *testing.T) {
	w, resp := healthCheck(t, &fakeChecker{exists: false})

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
	if len(resp.Issues) != 1 || resp.Issues[0] != "vector_store_unavailable" {
		t.Errorf("Issues = %v", resp.Issues)
	}
}
