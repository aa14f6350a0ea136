package rag

// AskRequest represents a question against the indexed documents.
type AskRequest struct {
	// Question is the user's question, Arabic or English.
	Question string `json:"question"`
	// K optionally overrides how many chunks to retrieve (default 5, max 20).
	K int `json:"n_results,omitempty"`
	// Model optionally overrides the generation model.
	Model string `json:"model,omitempty"`
}

// ContextChunk is one retrieved chunk as handed to the generator. It is
// returned alongside the answer so downstream consumers (visualization)
// can reuse the retrieval without searching again.
type ContextChunk struct {
	// Text is the chunk text.
	Text string `json:"text"`
	// DocumentName is the source document's display name.
	DocumentName string `json:"document_name"`
	// Page is the approximate source page.
	Page int `json:"page"`
	// Score is the similarity score from retrieval.
	Score float32 `json:"score"`
}

// AskResponse represents the answer to a question.
type AskResponse struct {
	// Answer is the generated answer, or a failure message when Success is false.
	Answer string `json:"answer"`
	// Sources are unique "{document} - Page {page}" citations in retrieval order.
	Sources []string `json:"sources"`
	// ModelUsed is the generation model that produced the answer.
	ModelUsed string `json:"model_used,omitempty"`
	// Success is false when retrieval found nothing or generation failed.
	Success bool `json:"success"`
	// NeedsVisualization reports whether the question asked for a table or chart.
	NeedsVisualization bool `json:"needs_visualization"`
	// Contexts are the retrieved chunks the answer was grounded on.
	Contexts []ContextChunk `json:"contexts,omitempty"`
}

// SummaryResponse represents a whole-document summary.
type SummaryResponse struct {
	// Summary is the generated summary, or a failure message when Success is false.
	Summary string `json:"summary"`
	// DocumentName is the summarized document.
	DocumentName string `json:"document_name"`
	// Success is false when the document has no indexed content or generation failed.
	Success bool `json:"success"`
}
