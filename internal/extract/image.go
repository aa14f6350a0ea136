package extract

import (
	"context"
)

// imagePlaceholder is returned when no OCR collaborator is configured.
// It is deliberately not an error: the document stays processable, just
// without useful content.
const imagePlaceholder = "[Image file - OCR not available]"

// ImageExtractor delegates image files entirely to OCR.
type ImageExtractor struct {
	OCR Transcriber
}

// Extract transcribes the image via the vision model, or returns a literal
// placeholder when OCR is unavailable.
func (e *ImageExtractor) Extract(ctx context.Context, path string) (*Result, error) {
	if e.OCR == nil {
		return &Result{
			Text:   imagePlaceholder,
			Pages:  []Page{{Number: 1, Text: imagePlaceholder, CharCount: len(imagePlaceholder)}},
			Method: MethodPlaceholder,
		}, nil
	}

	text, err := e.OCR.TranscribeImageFile(ctx, path)
	if err != nil {
		return nil, err
	}

	return &Result{
		Text:   text,
		Pages:  []Page{{Number: 1, Text: text, CharCount: len(text)}},
		Method: MethodOCR,
	}, nil
}
