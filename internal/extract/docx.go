package extract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// WordExtractor extracts text from .docx files. A docx is a ZIP archive whose
// main content lives in word/document.xml; paragraphs form the text stream
// and table cell contents are collected separately as metadata.
type WordExtractor struct{}

// documentXML mirrors the parts of word/document.xml we care about.
// encoding/xml matches on local names, so the w: namespace needs no handling.
type documentXML struct {
	Body struct {
		Paragraphs []paragraphXML `xml:"p"`
		Tables     []tableXML     `xml:"tbl"`
	} `xml:"body"`
}

type paragraphXML struct {
	Runs []runXML `xml:"r"`
}

type runXML struct {
	Texts []string `xml:"t"`
}

type tableXML struct {
	Rows []tableRowXML `xml:"tr"`
}

type tableRowXML struct {
	Cells []tableCellXML `xml:"tc"`
}

type tableCellXML struct {
	Paragraphs []paragraphXML `xml:"p"`
}

// Extract reads non-empty paragraphs in document order and collects table
// cell grids as auxiliary metadata, not merged into the main text stream.
func (e *WordExtractor) Extract(_ context.Context, path string) (*Result, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open docx archive: %w", err)
	}
	defer func() {
		_ = archive.Close()
	}()

	var doc documentXML
	found := false
	for _, file := range archive.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open document.xml: %w", err)
		}
		content, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read document.xml: %w", err)
		}

		if err := xml.Unmarshal(content, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse document.xml: %w", err)
		}
		found = true
		break
	}
	if !found {
		return nil, fmt.Errorf("invalid docx: missing word/document.xml")
	}

	var (
		pages    []Page
		fullText []string
	)
	for _, para := range doc.Body.Paragraphs {
		text := para.text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, Page{
			Number:    len(pages) + 1,
			Text:      text,
			CharCount: len(text),
		})
		fullText = append(fullText, text)
	}

	tables := make([][][]string, 0, len(doc.Body.Tables))
	for _, table := range doc.Body.Tables {
		rows := make([][]string, 0, len(table.Rows))
		for _, row := range table.Rows {
			cells := make([]string, 0, len(row.Cells))
			for _, cell := range row.Cells {
				cells = append(cells, cell.text())
			}
			rows = append(rows, cells)
		}
		tables = append(tables, rows)
	}

	return &Result{
		Text:   strings.Join(fullText, "\n\n"),
		Pages:  pages,
		Method: MethodTextExtraction,
		Tables: tables,
	}, nil
}

// text concatenates the run texts of a paragraph.
func (p paragraphXML) text() string {
	var b strings.Builder
	for _, run := range p.Runs {
		for _, t := range run.Texts {
			b.WriteString(t)
		}
	}
	return b.String()
}

// text joins a table cell's paragraphs with spaces.
func (c tableCellXML) text() string {
	parts := make([]string, 0, len(c.Paragraphs))
	for _, para := range c.Paragraphs {
		parts = append(parts, para.text())
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
