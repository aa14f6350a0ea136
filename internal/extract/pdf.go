package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/dslipak/pdf"

	"docqa/internal/contextutil"
)

// PDFExtractor extracts text from PDF files via the embedded text layer,
// falling back to OCR for scanned documents.
type PDFExtractor struct {
	OCR         Transcriber
	Threshold   int // Average chars/page below which the document is treated as scanned
	MaxOCRPages int
}

// Extract reads the PDF text layer page by page. When the average extracted
// characters per page falls below the threshold and OCR is available, the
// direct extraction is discarded and the pages are transcribed instead.
func (e *PDFExtractor) Extract(ctx context.Context, path string) (*Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	numPages := reader.NumPage()
	pages := make([]Page, 0, numPages)
	fullText := make([]string, 0, numPages)
	totalTextLength := 0

	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			pages = append(pages, Page{Number: pageNum})
			fullText = append(fullText, "")
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page degrades to empty text; the scanned
			// heuristic below decides whether the whole document needs OCR.
			logger.WarnContext(ctx, "failed to read PDF page text", "path", path, "page", pageNum, "error", err)
			text = ""
		}

		totalTextLength += len(strings.TrimSpace(text))
		pages = append(pages, Page{
			Number:    pageNum,
			Text:      text,
			CharCount: len(text),
		})
		fullText = append(fullText, text)
	}

	avgCharsPerPage := 0
	if numPages > 0 {
		avgCharsPerPage = totalTextLength / numPages
	}

	if avgCharsPerPage < e.Threshold && e.OCR != nil {
		logger.InfoContext(ctx, "scanned PDF detected, using OCR",
			"path", path,
			"avg_chars_per_page", avgCharsPerPage,
			"threshold", e.Threshold,
		)

		maxPages := e.MaxOCRPages
		if numPages < maxPages {
			maxPages = numPages
		}

		ocrResult, err := e.OCR.TranscribePDF(ctx, path, maxPages)
		if err != nil {
			// OCR total failure falls through to the (possibly near-empty)
			// direct extraction rather than failing the document.
			logger.WarnContext(ctx, "OCR fallback failed, keeping direct extraction", "path", path, "error", err)
		} else {
			ocrPages := make([]Page, 0, len(ocrResult.Pages))
			for _, p := range ocrResult.Pages {
				ocrPages = append(ocrPages, Page{
					Number:    p.Number,
					Text:      p.Text,
					CharCount: p.CharCount,
				})
			}
			return &Result{
				Text:      ocrResult.Text,
				Pages:     ocrPages,
				Method:    MethodOCR,
				PageCount: numPages,
			}, nil
		}
	}

	return &Result{
		Text:      strings.Join(fullText, "\n\n"),
		Pages:     pages,
		Method:    MethodTextExtraction,
		PageCount: numPages,
	}, nil
}
