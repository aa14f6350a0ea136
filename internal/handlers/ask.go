package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"docqa/internal/contextutil"
	"docqa/internal/rag"
	"docqa/internal/viz"
)

// AskHandler handles question answering over the indexed documents.
type AskHandler struct {
	ragEngine rag.Engine
	extractor *viz.Extractor
}

// NewAskHandler creates a new AskHandler. extractor may be nil to disable
// visualization payloads.
func NewAskHandler(ragEngine rag.Engine, extractor *viz.Extractor) *AskHandler {
	return &AskHandler{ragEngine: ragEngine, extractor: extractor}
}

// AskRequest represents the HTTP request payload for questions.
type AskRequest struct {
	Question string `json:"question"`
	NResults int    `json:"n_results,omitempty"`
	Model    string `json:"model,omitempty"`
}

// VisualizationResponse carries the structured data payload produced when a
// question asks for a table or chart.
type VisualizationResponse struct {
	// Type is "table" or "chart".
	Type string `json:"type"`
	// Title is the extraction model's title for the dataset.
	Title string `json:"title"`
	// Table is present when Type is "table".
	Table *viz.Table `json:"table,omitempty"`
	// ChartBase64 is a base64 PNG, present when Type is "chart".
	ChartBase64 string `json:"chart_base64,omitempty"`
}

// AskResponse represents the HTTP response payload for questions.
type AskResponse struct {
	Answer             string                 `json:"answer"`
	Sources            []string               `json:"sources"`
	ModelUsed          string                 `json:"model_used,omitempty"`
	Success            bool                   `json:"success"`
	NeedsVisualization bool                   `json:"needs_visualization"`
	Visualization      *VisualizationResponse `json:"visualization,omitempty"`
}

// ServeHTTP handles POST /api/ask.
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "Question is required")
		return
	}

	ragResp, err := h.ragEngine.Ask(ctx, rag.AskRequest{
		Question: req.Question,
		K:        req.NResults,
		Model:    req.Model,
	})
	if err != nil {
		logger.ErrorContext(ctx, "ask failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to answer question")
		return
	}

	resp := AskResponse{
		Answer:             ragResp.Answer,
		Sources:            ragResp.Sources,
		ModelUsed:          ragResp.ModelUsed,
		Success:            ragResp.Success,
		NeedsVisualization: ragResp.NeedsVisualization,
	}

	if ragResp.NeedsVisualization && ragResp.Success {
		resp.Visualization = h.buildVisualization(ctx, req.Question, ragResp.Contexts)
	}

	writeJSON(w, http.StatusOK, resp)
}

// buildVisualization extracts structured data from the retrieved chunks and
// renders it. Any failure degrades to no visualization; the answer stands on
// its own.
func (h *AskHandler) buildVisualization(ctx context.Context, question string, contexts []rag.ContextChunk) *VisualizationResponse {
	logger := contextutil.LoggerFromContext(ctx)
	if h.extractor == nil || len(contexts) == 0 {
		return nil
	}

	documents := make([]string, 0, len(contexts))
	sources := make([]string, 0, len(contexts))
	for _, c := range contexts {
		documents = append(documents, c.Text)
		sources = append(sources, c.DocumentName)
	}

	data, err := h.extractor.ExtractStructuredData(ctx, question, viz.ContextWithSources(documents, sources))
	if err != nil {
		logger.WarnContext(ctx, "structured data extraction failed", "error", err)
		return nil
	}
	if data == nil {
		return nil
	}

	switch data.Type {
	case viz.TypeTable:
		table := viz.TableFromData(data)
		return &VisualizationResponse{Type: viz.TypeTable, Title: table.Title, Table: table}

	case viz.TypeChart:
		chart, err := viz.RenderChart(data)
		if err != nil {
			logger.WarnContext(ctx, "chart rendering failed", "error", err)
			return nil
		}
		return &VisualizationResponse{Type: viz.TypeChart, Title: data.Title, ChartBase64: chart}

	default:
		return nil
	}
}
