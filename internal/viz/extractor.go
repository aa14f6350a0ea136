package viz

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"docqa/internal/contextutil"
	"docqa/internal/llm"
)

const (
	extractionTemperature = 0.1
	extractionMaxTokens   = 1000
)

// Extractor turns retrieved document text into structured datasets via the
// generation model.
type Extractor struct {
	generator llm.Generator
	model     string
}

// NewExtractor creates a structured data extractor using the given model.
func NewExtractor(generator llm.Generator, model string) *Extractor {
	return &Extractor{generator: generator, model: model}
}

func extractionPrompt(query, contextText string) string {
	return fmt.Sprintf(`Based on this query: "%s"

Extract structured data from the following context and return it as JSON.

Context:
%s

If the query asks for a comparison, table, or chart, extract the relevant data.
Return ONLY valid JSON in this format:
{
    "type": "table" or "chart",
    "title": "descriptive title",
    "data": [
        {"label": "item1", "value": 100, "category": "optional"},
        {"label": "item2", "value": 200, "category": "optional"}
    ],
    "chart_type": "bar" or "line" or "pie" (only if type is chart)
}

If no structured data can be extracted, return: {"type": "none"}
`, query, contextText)
}

// ExtractStructuredData asks the model to pull tabular data relevant to the
// query out of the context. Returns nil (no error) when the model reports
// that no structured data exists; errors cover transport and parse failures.
func (e *Extractor) ExtractStructuredData(ctx context.Context, query, contextText string) (*StructuredData, error) {
	logger := contextutil.LoggerFromContext(ctx)

	messages := []llm.Message{
		{Role: "system", Content: "You extract structured data and return valid JSON only. No explanations."},
		{Role: "user", Content: extractionPrompt(query, contextText)},
	}

	raw, err := e.generator.ChatWithMessages(ctx, messages, llm.ChatParams{
		Model:       e.model,
		Temperature: extractionTemperature,
		MaxTokens:   extractionMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to extract structured data: %w", err)
	}

	cleaned := stripCodeFences(strings.TrimSpace(raw))

	var data StructuredData
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		logger.WarnContext(ctx, "extraction model returned invalid JSON", "error", err)
		return nil, fmt.Errorf("failed to parse structured data: %w", err)
	}

	if data.Type == TypeNone {
		return nil, nil
	}
	return &data, nil
}

// ContextWithSources prefixes each chunk with its source document name, the
// shape the extraction prompt expects. Chunks without a matching source are
// attributed to "Unknown".
func ContextWithSources(documents, sources []string) string {
	var b strings.Builder
	for i, doc := range documents {
		if i > 0 {
			b.WriteString("\n\n")
		}
		name := "Unknown"
		if i < len(sources) && sources[i] != "" {
			name = sources[i]
		}
		fmt.Fprintf(&b, "[Source: %s]\n%s", name, doc)
	}
	return b.String()
}

// stripCodeFences unwraps a response the model wrapped in a markdown code
// block, optionally tagged "json".
func stripCodeFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	parts := strings.Split(s, "```")
	if len(parts) < 2 {
		return s
	}
	inner := parts[1]
	inner = strings.TrimPrefix(inner, "json")
	return strings.TrimSpace(inner)
}

// TableFromData renders a structured dataset as a column/row table. The
// category column only appears when at least one point carries a category.
func TableFromData(data *StructuredData) *Table {
	title := data.Title
	if title == "" {
		title = "Comparison Table"
	}

	hasCategory := false
	for _, p := range data.Data {
		if p.Category != "" {
			hasCategory = true
			break
		}
	}

	columns := []string{"label", "value"}
	if hasCategory {
		columns = append(columns, "category")
	}

	rows := make([][]string, 0, len(data.Data))
	for _, p := range data.Data {
		row := []string{p.Label, strconv.FormatFloat(p.Value, 'f', -1, 64)}
		if hasCategory {
			row = append(row, p.Category)
		}
		rows = append(rows, row)
	}

	return &Table{Title: title, Columns: columns, Rows: rows}
}
