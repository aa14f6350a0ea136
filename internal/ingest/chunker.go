package ingest

import (
	"strings"
	"unicode/utf8"
)

// boundaryMarkers are tried in order when deciding where to cut a chunk.
// The first marker present anywhere in the window wins; the cut lands just
// after its last occurrence. The set covers Latin and Arabic sentence ends
// plus paragraph breaks.
var boundaryMarkers = []string{". ", "。", "！", "؟", "\n\n"}

// Chunk is one window of document text destined for embedding.
type Chunk struct {
	Index int    // Zero-based position within the document
	Text  string // Window text
}

// Chunker splits text into overlapping windows measured in runes.
type Chunker struct {
	Size    int // Window size in runes
	Overlap int // Rune overlap between consecutive windows, < Size
}

// NewChunker creates a chunker with the given window size and overlap.
// A non-positive size is clamped to 1 and a negative overlap to 0 so a
// misconfigured chunker still terminates.
func NewChunker(size, overlap int) *Chunker {
	if size < 1 {
		size = 1
	}
	if overlap < 0 {
		overlap = 0
	}
	return &Chunker{Size: size, Overlap: overlap}
}

// Split cuts text into overlapping chunks. Windows that do not reach the end
// of the text are cut back to the last sentence or paragraph boundary found
// inside them; the next window starts Overlap runes before the cut. When a
// short boundary cut would make the next start not advance, the next window
// instead starts exactly at the cut, guaranteeing progress. Each window is
// whitespace-trimmed and dropped when nothing remains, so no chunk is ever
// empty; indexes run over the kept chunks.
func (c *Chunker) Split(text string) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	total := len(runes)

	var chunks []Chunk
	start := 0
	for start < total {
		end := start + c.Size

		if end < total {
			window := string(runes[start:end])
			for _, marker := range boundaryMarkers {
				byteIdx := strings.LastIndex(window, marker)
				if byteIdx == -1 {
					continue
				}
				cut := utf8.RuneCountInString(window[:byteIdx]) + utf8.RuneCountInString(marker)
				end = start + cut
				break
			}
		}

		sliceEnd := end
		if sliceEnd > total {
			sliceEnd = total
		}
		if chunk := strings.TrimSpace(string(runes[start:sliceEnd])); chunk != "" {
			chunks = append(chunks, Chunk{
				Index: len(chunks),
				Text:  chunk,
			})
		}

		next := end - c.Overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}
