package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// cellDelimiter joins the non-empty cells of a spreadsheet row.
const cellDelimiter = " | "

// SpreadsheetExtractor extracts text from .xlsx workbooks, one text line per
// non-empty row, sheets concatenated in workbook order.
type SpreadsheetExtractor struct{}

// Extract stringifies each cell (empty for nil), joins a row's non-empty
// cells with the delimiter, and concatenates rows per sheet, then across
// sheets. Sheet names are reported as metadata; each sheet is one unit.
func (e *SpreadsheetExtractor) Extract(_ context.Context, path string) (*Result, error) {
	workbook, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() {
		_ = workbook.Close()
	}()

	sheetNames := workbook.GetSheetList()

	var (
		pages    []Page
		fullText []string
	)
	for i, sheetName := range sheetNames {
		rows, err := workbook.GetRows(sheetName)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
		}

		var sheetText []string
		for _, row := range rows {
			var cells []string
			for _, cell := range row {
				if cell != "" {
					cells = append(cells, cell)
				}
			}
			if rowText := strings.Join(cells, cellDelimiter); rowText != "" {
				sheetText = append(sheetText, rowText)
			}
		}

		text := strings.Join(sheetText, "\n")
		pages = append(pages, Page{
			Number:    i + 1,
			Text:      text,
			CharCount: len(text),
		})
		fullText = append(fullText, sheetText...)
	}

	return &Result{
		Text:       strings.Join(fullText, "\n\n"),
		Pages:      pages,
		Method:     MethodTextExtraction,
		SheetNames: sheetNames,
	}, nil
}
