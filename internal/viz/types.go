package viz

import (
	"encoding/json"
	"strconv"
)

// Structured data kinds as reported by the extraction model.
const (
	TypeTable = "table"
	TypeChart = "chart"
	TypeNone  = "none"
)

// Chart kinds the renderer supports.
const (
	ChartBar  = "bar"
	ChartLine = "line"
	ChartPie  = "pie"
)

// DataPoint is one labeled value in extracted structured data.
type DataPoint struct {
	Label    string  `json:"label"`
	Value    float64 `json:"value"`
	Category string  `json:"category,omitempty"`
	// valid is false when the value could not be coerced to a number.
	valid bool
}

// Valid reports whether the point carried a usable numeric value.
func (p DataPoint) Valid() bool {
	return p.valid
}

// UnmarshalJSON tolerates the field variants the extraction model emits:
// "name" for "label", "count" for "value", and numbers serialized as strings.
// A point whose value cannot be coerced is kept but marked invalid so the
// renderer can skip it without failing the whole dataset.
func (p *DataPoint) UnmarshalJSON(data []byte) error {
	var raw struct {
		Label    string `json:"label"`
		Name     string `json:"name"`
		Value    any    `json:"value"`
		Count    any    `json:"count"`
		Category string `json:"category"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.Label = raw.Label
	if p.Label == "" {
		p.Label = raw.Name
	}
	p.Category = raw.Category

	value := raw.Value
	if value == nil {
		value = raw.Count
	}
	switch v := value.(type) {
	case float64:
		p.Value = v
		p.valid = true
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			p.Value = f
			p.valid = true
		}
	case bool, nil:
		// Not numeric; point stays invalid.
	}
	return nil
}

// StructuredData is the extraction model's answer: either a table or a chart
// dataset pulled out of retrieved document text.
type StructuredData struct {
	Type      string      `json:"type"`
	Title     string      `json:"title"`
	ChartType string      `json:"chart_type,omitempty"`
	Data      []DataPoint `json:"data"`
}

// Table is a rendered comparison table.
type Table struct {
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}
