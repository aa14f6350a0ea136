package viz

import (
	"bytes"
	"encoding/base64"
	"fmt"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	chartWidth  = 1024
	chartHeight = 600
)

// chartPalette cycles through distinct fill colors per data point.
var chartPalette = []drawing.Color{
	drawing.ColorFromHex("4A90E2"),
	drawing.ColorFromHex("50C878"),
	drawing.ColorFromHex("FF6B6B"),
	drawing.ColorFromHex("FFA500"),
	drawing.ColorFromHex("9B59B6"),
	drawing.ColorFromHex("3498DB"),
	drawing.ColorFromHex("E74C3C"),
	drawing.ColorFromHex("2ECC71"),
	drawing.ColorFromHex("F39C12"),
	drawing.ColorFromHex("1ABC9C"),
}

// RenderChart renders a structured dataset as a PNG chart and returns it
// base64 encoded. Points without a usable numeric value are skipped; an empty
// dataset or unknown chart type is an error.
func RenderChart(data *StructuredData) (string, error) {
	values := make([]chart.Value, 0, len(data.Data))
	for i, p := range data.Data {
		if !p.Valid() {
			continue
		}
		label := p.Label
		if label == "" {
			label = fmt.Sprintf("Item %d", i+1)
		}
		values = append(values, chart.Value{
			Label: label,
			Value: p.Value,
			Style: chart.Style{FillColor: chartPalette[len(values)%len(chartPalette)]},
		})
	}
	if len(values) == 0 {
		return "", fmt.Errorf("no valid data points to chart")
	}

	var buf bytes.Buffer
	var err error
	switch data.ChartType {
	case ChartBar, "":
		err = renderBar(data.Title, values, &buf)
	case ChartLine:
		err = renderLine(data.Title, values, &buf)
	case ChartPie:
		err = renderPie(data.Title, values, &buf)
	default:
		return "", fmt.Errorf("unsupported chart type %q", data.ChartType)
	}
	if err != nil {
		return "", fmt.Errorf("failed to render chart: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func renderBar(title string, values []chart.Value, buf *bytes.Buffer) error {
	graph := chart.BarChart{
		Title:    title,
		Width:    chartWidth,
		Height:   chartHeight,
		BarWidth: 60,
		Bars:     values,
	}
	return graph.Render(chart.PNG, buf)
}

func renderLine(title string, values []chart.Value, buf *bytes.Buffer) error {
	xs := make([]float64, len(values))
	ys := make([]float64, len(values))
	ticks := make([]chart.Tick, len(values))
	for i, v := range values {
		xs[i] = float64(i)
		ys[i] = v.Value
		ticks[i] = chart.Tick{Value: float64(i), Label: v.Label}
	}

	graph := chart.Chart{
		Title:  title,
		Width:  chartWidth,
		Height: chartHeight,
		XAxis: chart.XAxis{
			Ticks: ticks,
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: chartPalette[0],
					StrokeWidth: 3,
					DotColor:    chartPalette[1],
					DotWidth:    5,
				},
			},
		},
	}
	return graph.Render(chart.PNG, buf)
}

func renderPie(title string, values []chart.Value, buf *bytes.Buffer) error {
	graph := chart.PieChart{
		Title:  title,
		Width:  chartHeight, // Square canvas keeps the pie circular
		Height: chartHeight,
		Values: values,
	}
	return graph.Render(chart.PNG, buf)
}
