package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Document lifecycle statuses. A document starts as StatusUploaded, moves to
// StatusProcessing while the pipeline runs, and ends in StatusIndexed or one
// of the failure states. Transitions happen only on explicit process calls.
const (
	StatusUploaded       = "uploaded"
	StatusProcessing     = "processing"
	StatusIndexed        = "indexed"
	StatusFailedParsing  = "failed_parsing"
	StatusFailedIndexing = "failed_indexing"
	StatusError          = "error"
)

// DocumentRecord represents one uploaded file in the registry.
type DocumentRecord struct {
	Name       string    // Display name, unique (also the on-disk filename)
	Path       string    // Storage path of the raw bytes
	Digest     string    // SHA256 hex of the raw bytes, unique
	SizeBytes  int64     // Raw byte size
	MIMEType   string    // Declared MIME type tag
	Status     string    // Lifecycle status (see Status* constants)
	Error      string    // Last error message, empty if none
	ChunkCount int       // Chunks indexed on last successful processing
	UploadedAt time.Time // Upload timestamp
}
