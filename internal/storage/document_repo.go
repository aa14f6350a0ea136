package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks docqa/internal/storage DocumentStore

import (
	"context"
	"database/sql"
	"fmt"
)

// DocumentStore defines the interface for document registry operations.
type DocumentStore interface {
	// Insert registers a new document. The record's Name and Digest must be unique.
	Insert(ctx context.Context, doc *DocumentRecord) error
	// GetByName returns the document with the given display name. Returns ErrNotFound if missing.
	GetByName(ctx context.Context, name string) (*DocumentRecord, error)
	// GetByDigest returns the document with the given content digest. Returns ErrNotFound if missing.
	GetByDigest(ctx context.Context, digest string) (*DocumentRecord, error)
	// List returns all documents ordered by upload time.
	List(ctx context.Context) ([]*DocumentRecord, error)
	// UpdateStatus sets the lifecycle status and error message for a document.
	UpdateStatus(ctx context.Context, name, status, errMsg string) error
	// SetIndexed marks a document as indexed with its chunk count.
	SetIndexed(ctx context.Context, name string, chunkCount int) error
	// Delete removes a document from the registry.
	Delete(ctx context.Context, name string) error
}

// DocumentRepo provides methods for document registry operations backed by SQLite.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// DB exposes the underlying database handle for stats queries.
func (r *DocumentRepo) DB() *sql.DB {
	return r.db
}

// Insert registers a new document.
func (r *DocumentRepo) Insert(ctx context.Context, doc *DocumentRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (name, path, digest, size_bytes, mime_type, status, error, chunk_count, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.Name, doc.Path, doc.Digest, doc.SizeBytes, doc.MIMEType, doc.Status, doc.Error, doc.ChunkCount, doc.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// GetByName returns the document with the given display name.
func (r *DocumentRepo) GetByName(ctx context.Context, name string) (*DocumentRecord, error) {
	return r.getOne(ctx, "SELECT name, path, digest, size_bytes, mime_type, status, error, chunk_count, uploaded_at FROM documents WHERE name = ?", name)
}

// GetByDigest returns the document with the given content digest.
// Used by the upload path to reject byte-identical re-uploads.
func (r *DocumentRepo) GetByDigest(ctx context.Context, digest string) (*DocumentRecord, error) {
	return r.getOne(ctx, "SELECT name, path, digest, size_bytes, mime_type, status, error, chunk_count, uploaded_at FROM documents WHERE digest = ?", digest)
}

func (r *DocumentRepo) getOne(ctx context.Context, query string, arg any) (*DocumentRecord, error) {
	var doc DocumentRecord
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&doc.Name, &doc.Path, &doc.Digest, &doc.SizeBytes, &doc.MIMEType,
		&doc.Status, &doc.Error, &doc.ChunkCount, &doc.UploadedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}
	return &doc, nil
}

// List returns all documents ordered by upload time.
func (r *DocumentRepo) List(ctx context.Context) ([]*DocumentRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT name, path, digest, size_bytes, mime_type, status, error, chunk_count, uploaded_at FROM documents ORDER BY uploaded_at")
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var docs []*DocumentRecord
	for rows.Next() {
		var doc DocumentRecord
		if err := rows.Scan(
			&doc.Name, &doc.Path, &doc.Digest, &doc.SizeBytes, &doc.MIMEType,
			&doc.Status, &doc.Error, &doc.ChunkCount, &doc.UploadedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, &doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return docs, nil
}

// UpdateStatus sets the lifecycle status and error message for a document.
func (r *DocumentRepo) UpdateStatus(ctx context.Context, name, status, errMsg string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE documents SET status = ?, error = ? WHERE name = ?", status, errMsg, name)
	if err != nil {
		return fmt.Errorf("failed to update document status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetIndexed marks a document as indexed with its chunk count and clears any error.
func (r *DocumentRepo) SetIndexed(ctx context.Context, name string, chunkCount int) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE documents SET status = ?, error = '', chunk_count = ? WHERE name = ?",
		StatusIndexed, chunkCount, name)
	if err != nil {
		return fmt.Errorf("failed to mark document indexed: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a document from the registry.
func (r *DocumentRepo) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
