package ingest

import "errors"

// Sentinel errors for the processing pipeline. Handlers map these onto HTTP
// status codes; the document record carries the human-readable detail.
var (
	// ErrDuplicateDocument means the uploaded bytes or name already exist.
	ErrDuplicateDocument = errors.New("duplicate document")
	// ErrExtraction means text extraction failed and the document was marked failed_parsing.
	ErrExtraction = errors.New("extraction failed")
	// ErrEmbeddingFailed means no chunk of the document could be embedded.
	ErrEmbeddingFailed = errors.New("embedding failed")
	// ErrIndexingFailed means the vector store rejected the document's points.
	ErrIndexingFailed = errors.New("indexing failed")
)
