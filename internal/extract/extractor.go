package extract

import (
	"context"
	"errors"
	"fmt"

	"docqa/internal/contextutil"
	"docqa/internal/ocr"
)

// ErrUnsupportedType is returned when no extractor exists for a MIME type.
var ErrUnsupportedType = errors.New("unsupported file type")

// Transcriber is the OCR collaborator used by the PDF and image extractors.
// A nil Transcriber disables the OCR path.
type Transcriber interface {
	TranscribeImageFile(ctx context.Context, path string) (string, error)
	TranscribePDF(ctx context.Context, path string, maxPages int) (*ocr.Result, error)
}

// Extractor converts one document file into plain text plus metadata.
type Extractor interface {
	Extract(ctx context.Context, path string) (*Result, error)
}

// Processor dispatches extraction over the closed set of format variants.
type Processor struct {
	extractors map[Format]Extractor
}

// Options configures the format extractors.
type Options struct {
	// OCR is the transcription collaborator; nil disables OCR.
	OCR Transcriber
	// OCRTriggerThreshold is the average chars/page below which a PDF is
	// treated as scanned and routed through OCR.
	OCRTriggerThreshold int
	// OCRMaxPages caps the number of scanned PDF pages transcribed.
	OCRMaxPages int
}

// NewProcessor creates a Processor with one extractor per supported format.
func NewProcessor(opts Options) *Processor {
	if opts.OCRTriggerThreshold <= 0 {
		opts.OCRTriggerThreshold = 30
	}
	if opts.OCRMaxPages <= 0 {
		opts.OCRMaxPages = 20
	}

	return &Processor{
		extractors: map[Format]Extractor{
			FormatPDF:         &PDFExtractor{OCR: opts.OCR, Threshold: opts.OCRTriggerThreshold, MaxOCRPages: opts.OCRMaxPages},
			FormatWord:        &WordExtractor{},
			FormatSpreadsheet: &SpreadsheetExtractor{},
			FormatImage:       &ImageExtractor{OCR: opts.OCR},
			FormatMarkdown:    NewMarkdownExtractor(),
		},
	}
}

// Process extracts text from the file at path, dispatching on the declared
// MIME type. An unrecognized type fails with ErrUnsupportedType and no
// partial result; extractor failures are wrapped, never swallowed.
func (p *Processor) Process(ctx context.Context, path, mimeType string) (*Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	format := FormatFromMIME(mimeType)
	extractor, ok := p.extractors[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}

	result, err := extractor.Extract(ctx, path)
	if err != nil {
		logger.ErrorContext(ctx, "extraction failed", "path", path, "format", format.String(), "error", err)
		return nil, fmt.Errorf("failed to extract %s: %w", format.String(), err)
	}

	result.Format = format
	logger.InfoContext(ctx, "extraction completed",
		"path", path,
		"format", format.String(),
		"method", result.Method,
		"text_length", len(result.Text),
		"units", len(result.Pages),
	)
	return result, nil
}
