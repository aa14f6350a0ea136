package ocr

import (
	"fmt"

	"github.com/gen2brain/go-fitz"
)

// renderDPI is the resolution used when rasterizing PDF pages for OCR.
// 150 DPI keeps small print legible without producing oversized payloads.
const renderDPI = 150

// FitzRenderer renders PDF pages to PNG using MuPDF.
type FitzRenderer struct{}

// NewFitzRenderer creates a MuPDF-backed page renderer.
func NewFitzRenderer() *FitzRenderer {
	return &FitzRenderer{}
}

// RenderPages renders up to maxPages pages of the PDF at path as PNG images.
func (r *FitzRenderer) RenderPages(path string, maxPages int) ([][]byte, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer func() {
		_ = doc.Close()
	}()

	numPages := doc.NumPage()
	if maxPages > 0 && numPages > maxPages {
		numPages = maxPages
	}

	images := make([][]byte, 0, numPages)
	for i := 0; i < numPages; i++ {
		png, err := doc.ImagePNG(i, renderDPI)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", i+1, err)
		}
		images = append(images, png)
	}

	return images, nil
}
