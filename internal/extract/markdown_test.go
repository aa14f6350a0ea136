package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeMarkdown(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.md")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestMarkdownExtractor(t *testing.T) {
	input := `# Project Report

This is the **introduction** paragraph.

- first item
- second item

` + "```go\nfmt.Println(\"hi\")\n```\n"

	e := NewMarkdownExtractor()
	result, err := e.Extract(context.Background(), writeMarkdown(t, input))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	for _, want := range []string{
		"Project Report",
		"This is the introduction paragraph.",
		"first item",
		"second item",
		`fmt.Println("hi")`,
	} {
		if !strings.Contains(result.Text, want) {
			t.Errorf("Text missing %q:\n%s", want, result.Text)
		}
	}

	// Formatting syntax is stripped, not carried through.
	for _, unwanted := range []string{"#", "**", "- first", "```"} {
		if strings.Contains(result.Text, unwanted) {
			t.Errorf("Text still contains markdown syntax %q:\n%s", unwanted, result.Text)
		}
	}

	if result.Method != MethodTextExtraction {
		t.Errorf("Method = %s, want %s", result.Method, MethodTextExtraction)
	}
	if len(result.Pages) != 1 {
		t.Errorf("got %d units, want 1", len(result.Pages))
	}
}

func TestMarkdownExtractor_Table(t *testing.T) {
	input := `| Name | Age |
| ---- | --- |
| Bob  | 42  |
| Ann  | 35  |
`

	e := NewMarkdownExtractor()
	result, err := e.Extract(context.Background(), writeMarkdown(t, input))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	for _, want := range []string{"Name | Age", "Bob | 42", "Ann | 35"} {
		if !strings.Contains(result.Text, want) {
			t.Errorf("Text missing table row %q:\n%s", want, result.Text)
		}
	}
}

func TestMarkdownExtractor_Empty(t *testing.T) {
	e := NewMarkdownExtractor()
	result, err := e.Extract(context.Background(), writeMarkdown(t, ""))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if result.Text != "" {
		t.Errorf("Text = %q, want empty", result.Text)
	}
}

func TestMarkdownExtractor_MissingFile(t *testing.T) {
	e := NewMarkdownExtractor()
	if _, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.md")); err == nil {
		t.Error("Extract() error = nil, want failure for missing file")
	}
}
