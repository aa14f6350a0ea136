package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docqa/internal/llm"
	"docqa/internal/rag"
	"docqa/internal/viz"
)

// fakeRAGEngine returns canned responses and records the request.
type fakeRAGEngine struct {
	askResp     rag.AskResponse
	askErr      error
	summaryResp rag.SummaryResponse
	lastAsk     rag.AskRequest
}

func (f *fakeRAGEngine) Ask(_ context.Context, req rag.AskRequest) (rag.AskResponse, error) {
	f.lastAsk = req
	return f.askResp, f.askErr
}

func (f *fakeRAGEngine) Summarize(_ context.Context, name string) (rag.SummaryResponse, error) {
	f.summaryResp.DocumentName = name
	return f.summaryResp, nil
}

// cannedGenerator satisfies llm.Generator for the viz extractor.
type cannedGenerator struct {
	response string
	messages []llm.Message
}

func (g *cannedGenerator) ChatWithMessages(_ context.Context, messages []llm.Message, _ llm.ChatParams) (string, error) {
	g.messages = messages
	return g.response, nil
}

func doAsk(t *testing.T, h *AskHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestAskHandler(t *testing.T) {
	engine := &fakeRAGEngine{askResp: rag.AskResponse{
		Answer:    "Revenue grew 12% (report.pdf, page 1).",
		Sources:   []string{"report.pdf - Page 1"},
		ModelUsed: "default-model",
		Success:   true,
	}}
	h := NewAskHandler(engine, nil)

	w := doAsk(t, h, `{"question":"How much did revenue grow?","n_results":7,"model":"other-model"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp AskResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}

	if !resp.Success || resp.Answer != engine.askResp.Answer {
		t.Errorf("response = %+v", resp)
	}
	if len(resp.Sources) != 1 || resp.Sources[0] != "report.pdf - Page 1" {
		t.Errorf("Sources = %v", resp.Sources)
	}

	if engine.lastAsk.K != 7 {
		t.Errorf("K = %d, want the requested n_results", engine.lastAsk.K)
	}
	if engine.lastAsk.Model != "other-model" {
		t.Errorf("Model = %s, want the requested override", engine.lastAsk.Model)
	}
}

func TestAskHandler_InvalidBody(t *testing.T) {
	h := NewAskHandler(&fakeRAGEngine{}, nil)

	w := doAsk(t, h, `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAskHandler_EmptyQuestion(t *testing.T) {
	h := NewAskHandler(&fakeRAGEngine{}, nil)

	w := doAsk(t, h, `{"question":""}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func vizAskResponse() rag.AskResponse {
	return rag.AskResponse{
		Answer:             "Here is the comparison.",
		Sources:            []string{"report.pdf - Page 1"},
		Success:            true,
		NeedsVisualization: true,
		Contexts: []rag.ContextChunk{
			{Text: "Q1 was 10, Q2 was 20.", DocumentName: "report.pdf", Page: 1},
		},
	}
}

func TestAskHandler_TableVisualization(t *testing.T) {
	engine := &fakeRAGEngine{askResp: vizAskResponse()}
	gen := &cannedGenerator{
		response: `{"type":"table","title":"Quarters","data":[{"label":"Q1","value":10},{"label":"Q2","value":20}]}`,
	}
	extractor := viz.NewExtractor(gen, "test-model")
	h := NewAskHandler(engine, extractor)

	w := doAsk(t, h, `{"question":"compare the quarters in a table"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp AskResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}

	if resp.Visualization == nil {
		t.Fatal("Visualization = nil, want a table payload")
	}
	if resp.Visualization.Type != viz.TypeTable || resp.Visualization.Table == nil {
		t.Errorf("Visualization = %+v, want a table", resp.Visualization)
	}
	if len(resp.Visualization.Table.Rows) != 2 {
		t.Errorf("table rows = %v, want 2", resp.Visualization.Table.Rows)
	}
	if resp.Visualization.ChartBase64 != "" {
		t.Error("table payload should not carry a chart")
	}

	// The extraction prompt attributes each retrieved chunk to its document.
	userMsg := gen.messages[len(gen.messages)-1].Content
	if !strings.Contains(userMsg, "[Source: report.pdf]\nQ1 was 10, Q2 was 20.") {
		t.Errorf("extraction prompt = %q, missing the source-attributed chunk", userMsg)
	}
}

func TestAskHandler_ChartVisualization(t *testing.T) {
	engine := &fakeRAGEngine{askResp: vizAskResponse()}
	extractor := viz.NewExtractor(&cannedGenerator{
		response: `{"type":"chart","title":"Quarters","chart_type":"bar","data":[{"label":"Q1","value":10},{"label":"Q2","value":20}]}`,
	}, "test-model")
	h := NewAskHandler(engine, extractor)

	w := doAsk(t, h, `{"question":"chart the quarters"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp AskResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}

	if resp.Visualization == nil {
		t.Fatal("Visualization = nil, want a chart payload")
	}
	if resp.Visualization.Type != viz.TypeChart || resp.Visualization.ChartBase64 == "" {
		t.Errorf("Visualization = %+v, want a base64 chart", resp.Visualization)
	}
}

func TestAskHandler_VisualizationDegrades(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"extraction reports none", `{"type":"none"}`},
		{"invalid extraction JSON", "not json at all"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeRAGEngine{askResp: vizAskResponse()}
			extractor := viz.NewExtractor(&cannedGenerator{response: tt.response}, "test-model")
			h := NewAskHandler(engine, extractor)

			w := doAsk(t, h, `{"question":"table please"}`)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200 even when visualization fails", w.Code)
			}

			var resp AskResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid response body: %v", err)
			}
			if resp.Visualization != nil {
				t.Errorf("Visualization = %+v, want nil", resp.Visualization)
			}
			if resp.Answer == "" {
				t.Error("answer lost when visualization degraded")
			}
		})
	}
}

func TestAskHandler_NilExtractor(t *testing.T) {
	engine := &fakeRAGEngine{askResp: vizAskResponse()}
	h := NewAskHandler(engine, nil)

	w := doAsk(t, h, `{"question":"table please"}`)

	var resp AskResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Visualization != nil {
		t.Error("Visualization should be nil without an extractor")
	}
	if !resp.NeedsVisualization {
		t.Error("NeedsVisualization flag should still pass through")
	}
}

func TestAskHandler_NoVisualizationOnFailure(t *testing.T) {
	// Unsuccessful answers never get a visualization even when requested.
	engine := &fakeRAGEngine{askResp: rag.AskResponse{
		Answer:             "No relevant documents found.",
		Sources:            []string{},
		Success:            false,
		NeedsVisualization: true,
	}}
	extractor := viz.NewExtractor(&cannedGenerator{response: `{"type":"table","data":[{"label":"a","value":1}]}`}, "m")
	h := NewAskHandler(engine, extractor)

	w := doAsk(t, h, `{"question":"table please"}`)

	var resp AskResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Visualization != nil {
		t.Error("Visualization should be skipped for unsuccessful answers")
	}
}
