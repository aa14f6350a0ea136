package ingest

import (
	"context"
	"fmt"

	"docqa/internal/storage"
)

// Stats describes the state of the registry and the vector collection.
type Stats struct {
	// TotalDocuments is the number of registered documents.
	TotalDocuments int `json:"total_documents"`
	// DocumentsByStatus breaks the registry down by lifecycle status.
	DocumentsByStatus map[string]int `json:"documents_by_status"`
	// IndexedChunks is the sum of chunk counts over indexed documents.
	IndexedChunks int `json:"indexed_chunks"`
	// VectorPoints is the exact point count reported by the vector store.
	// -1 when the store is unreachable.
	VectorPoints int `json:"vector_points"`
	// Collection is the vector collection name.
	Collection string `json:"collection"`
}

// GetStats computes registry and index statistics.
// The registry queries must succeed; an unreachable vector store degrades the
// point count to -1 rather than failing the whole call.
func (p *Pipeline) GetStats(ctx context.Context) (*Stats, error) {
	repo, ok := p.docRepo.(*storage.DocumentRepo)
	if !ok {
		return nil, fmt.Errorf("docRepo is not *storage.DocumentRepo, cannot query stats")
	}
	db := repo.DB()
	if db == nil {
		return nil, fmt.Errorf("docRepo.DB() returned nil")
	}

	stats := &Stats{
		DocumentsByStatus: make(map[string]int),
		Collection:        p.collection,
	}

	rows, err := db.QueryContext(ctx, "SELECT status, COUNT(*) FROM documents GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to query status counts: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		stats.DocumentsByStatus[status] = count
		stats.TotalDocuments += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	err = db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(chunk_count), 0) FROM documents WHERE status = ?",
		storage.StatusIndexed,
	).Scan(&stats.IndexedChunks)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk total: %w", err)
	}

	points, err := p.vectorStore.Count(ctx, p.collection)
	if err != nil {
		stats.VectorPoints = -1
	} else {
		stats.VectorPoints = points
	}

	return stats, nil
}
