// Package ocr transcribes images and scanned PDFs through an external
// vision-capable model. The returned text is treated as opaque; no local
// validation of transcription quality is attempted.
package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"docqa/internal/contextutil"
	"docqa/internal/llm"
)

// PageText is the transcription of one rendered PDF page.
type PageText struct {
	Number    int    `json:"page_number"`
	Text      string `json:"text"`
	CharCount int    `json:"char_count"`
}

// Result is the combined transcription of a scanned PDF.
type Result struct {
	Text  string
	Pages []PageText
}

// PageRenderer renders PDF pages to PNG images. A nil renderer disables the
// scanned-PDF path while leaving plain image transcription available.
type PageRenderer interface {
	RenderPages(path string, maxPages int) ([][]byte, error)
}

// Client transcribes images via a vision-capable chat model.
type Client struct {
	llm      llm.Generator
	language string
	renderer PageRenderer
}

// NewClient creates an OCR client. language describes the scripts expected in
// the documents (e.g. "Arabic and English") and is embedded in the prompt.
func NewClient(generator llm.Generator, language string, renderer PageRenderer) *Client {
	return &Client{
		llm:      generator,
		language: language,
		renderer: renderer,
	}
}

// transcriptionPrompt builds the instruction prompt for a vision call.
func (c *Client) transcriptionPrompt() string {
	return fmt.Sprintf(`Extract ALL text from this image in %s.

Rules:
1. Preserve the original layout and structure
2. If there are tables, format them clearly
3. If there are multiple columns, separate them with |
4. Include ALL text, even small details
5. Keep text in its original script, do not transliterate
6. If text is unclear, note it with [unclear]

Return ONLY the extracted text, no explanations.`, c.language)
}

// TranscribeImage extracts text from raw image bytes.
func (c *Client) TranscribeImage(ctx context.Context, image []byte) (string, error) {
	encoded := base64.StdEncoding.EncodeToString(image)

	messages := []llm.Message{
		{
			Role: "user",
			Parts: []llm.ContentPart{
				{Type: "text", Text: c.transcriptionPrompt()},
				{Type: "image_url", ImageURL: &llm.ImageURL{
					URL: fmt.Sprintf("data:image/png;base64,%s", encoded),
				}},
			},
		},
	}

	text, err := c.llm.ChatWithMessages(ctx, messages, llm.ChatParams{
		MaxTokens:   2000,
		Temperature: 0.1,
	})
	if err != nil {
		return "", fmt.Errorf("vision transcription failed: %w", err)
	}

	return text, nil
}

// TranscribeImageFile extracts text from an image file on disk.
func (c *Client) TranscribeImageFile(ctx context.Context, path string) (string, error) {
	image, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	return c.TranscribeImage(ctx, image)
}

// TranscribePDF renders up to maxPages pages of a scanned PDF and transcribes
// each independently. Each page's text is prefixed with a page marker; a
// single page's failure excludes that page from the combined text and is not
// fatal unless every page fails.
func (c *Client) TranscribePDF(ctx context.Context, path string, maxPages int) (*Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if c.renderer == nil {
		return nil, fmt.Errorf("no page renderer available")
	}

	images, err := c.renderer.RenderPages(path, maxPages)
	if err != nil {
		return nil, fmt.Errorf("failed to render PDF pages: %w", err)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("PDF has no renderable pages")
	}

	var (
		combined []string
		pages    []PageText
	)
	for i, image := range images {
		pageNum := i + 1
		text, err := c.TranscribeImage(ctx, image)
		if err != nil {
			logger.WarnContext(ctx, "page transcription failed", "path", path, "page", pageNum, "error", err)
			continue
		}

		pages = append(pages, PageText{
			Number:    pageNum,
			Text:      text,
			CharCount: len(text),
		})
		combined = append(combined, fmt.Sprintf("[Page %d]\n%s", pageNum, text))
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("transcription failed for all %d pages", len(images))
	}

	logger.InfoContext(ctx, "scanned PDF transcribed", "path", path, "pages_ok", len(pages), "pages_total", len(images))

	return &Result{Text: strings.Join(combined, "\n\n"), Pages: pages}, nil
}
