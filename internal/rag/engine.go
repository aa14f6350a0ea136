package rag

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"docqa/internal/contextutil"
	"docqa/internal/llm"
	"docqa/internal/vectorstore"
)

const (
	defaultK = 5
	maxK     = 20

	// answerTemperature keeps generation close to the retrieved text.
	answerTemperature = 0.3
	answerMaxTokens   = 1000

	summaryTemperature = 0.5
	summaryMaxTokens   = 500
	// summaryInputLimit caps the document text fed to the summarizer, in runes.
	summaryInputLimit = 4000

	// summaryScrollLimit bounds how many chunks a summary pulls from the store.
	summaryScrollLimit = 1000
)

// systemPrompt instructs the model to answer strictly from the supplied
// documents, in Arabic and English since the corpus is bilingual.
const systemPrompt = `أنت مساعد ذكي متخصص في الإجابة على الأسئلة بناءً على المستندات المقدمة فقط.

قواعد مهمة:
1. أجب فقط بناءً على المعلومات الموجودة في المستندات المقدمة
2. إذا لم تجد إجابة في المستندات، قل "لا أجد معلومات كافية في المستندات المتاحة للإجابة على هذا السؤال"
3. اذكر دائماً مصدر المعلومات (اسم المستند ورقم الصفحة)
4. كن دقيقاً ومختصراً
5. إذا كانت الإجابة غير واضحة، اذكر ذلك

You are a smart assistant specialized in answering questions based only on provided documents.

Important rules:
1. Answer only based on information in the provided documents
2. If no answer is found in documents, say "I don't find sufficient information in the available documents to answer this question"
3. Always cite the source (document name and page number)
4. Be accurate and concise
5. If the answer is unclear, mention that
`

// noDocumentsAnswer is returned when retrieval finds nothing.
const noDocumentsAnswer = "لا توجد مستندات ذات صلة للإجابة على هذا السؤال.\n\nNo relevant documents found to answer this question."

// vizKeywords trigger the needs-visualization flag when present in a question.
var vizKeywords = []string{
	"table", "chart", "graph", "compare", "comparison",
	"بياني", "رسم", "جدول", "مخطط", "مقارنة", "قارن",
}

// Engine answers questions over the indexed documents.
type Engine interface {
	// Ask retrieves relevant chunks and generates a grounded answer.
	Ask(ctx context.Context, req AskRequest) (AskResponse, error)
	// Summarize generates a bilingual summary of one document's indexed content.
	Summarize(ctx context.Context, documentName string) (SummaryResponse, error)
}

type ragEngine struct {
	embedder    llm.Embedder
	vectorStore vectorstore.VectorStore
	collection  string
	generator   llm.Generator
	model       string
	logger      *slog.Logger
}

// NewEngine creates a new RAG engine. model is the default generation model,
// overridable per request.
func NewEngine(
	embedder llm.Embedder,
	vectorStore vectorstore.VectorStore,
	collection string,
	generator llm.Generator,
	model string,
) Engine {
	return &ragEngine{
		embedder:    embedder,
		vectorStore: vectorStore,
		collection:  collection,
		generator:   generator,
		model:       model,
		logger:      slog.Default(),
	}
}

// Ask retrieves relevant chunks and generates an answer grounded on them.
// Retrieval problems (embedding failure, store errors, no matches) produce an
// unsuccessful response with the bilingual no-documents message; generation
// failure produces an unsuccessful response carrying the error text. Neither
// returns a Go error, so callers always get an answer body.
func (e *ragEngine) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	k := req.K
	if k <= 0 {
		k = defaultK
	}
	if k > maxK {
		k = maxK
	}

	model := req.Model
	if model == "" {
		model = e.model
	}

	logger.InfoContext(ctx, "question received", "question_length", len(req.Question), "k", k, "model", model)

	results := e.retrieve(ctx, req.Question, k)
	if len(results) == 0 {
		return AskResponse{
			Answer:             noDocumentsAnswer,
			Sources:            []string{},
			Success:            false,
			NeedsVisualization: needsVisualization(req.Question),
		}, nil
	}

	contexts := make([]ContextChunk, 0, len(results))
	for _, r := range results {
		contexts = append(contexts, ContextChunk{
			Text:         r.Text,
			DocumentName: metaString(r.Meta, "document_name"),
			Page:         metaInt(r.Meta, "page"),
			Score:        r.Score,
		})
	}

	userMessage := buildUserMessage(req.Question, contexts)
	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userMessage},
	}

	answer, err := e.generator.ChatWithMessages(ctx, messages, llm.ChatParams{
		Model:       model,
		Temperature: answerTemperature,
		MaxTokens:   answerMaxTokens,
	})
	if err != nil {
		logger.ErrorContext(ctx, "answer generation failed", "error", err)
		return AskResponse{
			Answer:             fmt.Sprintf("Error generating response: %s", err),
			Sources:            []string{},
			ModelUsed:          model,
			Success:            false,
			NeedsVisualization: needsVisualization(req.Question),
			Contexts:           contexts,
		}, nil
	}

	logger.InfoContext(ctx, "question answered", "chunks_used", len(contexts), "answer_length", len(answer))

	return AskResponse{
		Answer:             answer,
		Sources:            extractSources(contexts),
		ModelUsed:          model,
		Success:            true,
		NeedsVisualization: needsVisualization(req.Question),
		Contexts:           contexts,
	}, nil
}

// retrieve embeds the question and searches the collection. Any failure along
// the way degrades to an empty result set.
func (e *ragEngine) retrieve(ctx context.Context, question string, k int) []vectorstore.SearchResult {
	logger := contextutil.LoggerFromContext(ctx)

	queryVector, err := e.embedder.EmbedText(ctx, question)
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed question", "error", err)
		return nil
	}

	results, err := e.vectorStore.Search(ctx, e.collection, queryVector, k, nil)
	if err != nil {
		logger.ErrorContext(ctx, "vector search failed", "error", err)
		return nil
	}
	return results
}

// Summarize pulls all of a document's indexed chunks and generates a concise
// bilingual summary. Like Ask, failure is reported in the response body.
func (e *ragEngine) Summarize(ctx context.Context, documentName string) (SummaryResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	results, err := e.vectorStore.Scroll(ctx, e.collection, map[string]any{"document_name": documentName}, summaryScrollLimit)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load document chunks", "document", documentName, "error", err)
		return SummaryResponse{
			Summary:      fmt.Sprintf("Error generating summary: %s", err),
			DocumentName: documentName,
		}, nil
	}
	if len(results) == 0 {
		return SummaryResponse{
			Summary:      fmt.Sprintf("No content found for %s", documentName),
			DocumentName: documentName,
		}, nil
	}

	// Scroll order is arbitrary; restore document order before joining.
	sort.Slice(results, func(i, j int) bool {
		return metaInt(results[i].Meta, "chunk_index") < metaInt(results[j].Meta, "chunk_index")
	})

	texts := make([]string, 0, len(results))
	for _, r := range results {
		texts = append(texts, r.Text)
	}
	fullText := strings.Join(texts, "\n\n")
	if runes := []rune(fullText); len(runes) > summaryInputLimit {
		fullText = string(runes[:summaryInputLimit])
	}

	messages := []llm.Message{
		{Role: "system", Content: "You are a helpful assistant that creates concise summaries."},
		{Role: "user", Content: fmt.Sprintf("Please provide a concise summary of the following document in both Arabic and English:\n\n%s", fullText)},
	}

	summary, err := e.generator.ChatWithMessages(ctx, messages, llm.ChatParams{
		Model:       e.model,
		Temperature: summaryTemperature,
		MaxTokens:   summaryMaxTokens,
	})
	if err != nil {
		logger.ErrorContext(ctx, "summary generation failed", "document", documentName, "error", err)
		return SummaryResponse{
			Summary:      fmt.Sprintf("Error generating summary: %s", err),
			DocumentName: documentName,
		}, nil
	}

	return SummaryResponse{
		Summary:      summary,
		DocumentName: documentName,
		Success:      true,
	}, nil
}

// buildUserMessage renders the retrieved chunks as numbered bilingual context
// blocks followed by the question.
func buildUserMessage(question string, contexts []ContextChunk) string {
	var parts []string
	for i, c := range contexts {
		parts = append(parts, fmt.Sprintf(`[مستند %d | Document %d]
المصدر | Source: %s (صفحة | Page %d)
النص | Text:
%s
---
`, i+1, i+1, c.DocumentName, c.Page, c.Text))
	}
	contextBlock := strings.Join(parts, "\n")

	return fmt.Sprintf(`السياق من المستندات:
%s

السؤال: %s

الرجاء الإجابة بناءً على السياق أعلاه فقط، مع ذكر المصادر.

Context from documents:
%s

Question: %s

Please answer based only on the context above, citing sources.
`, contextBlock, question, contextBlock, question)
}

// extractSources produces unique "{document} - Page {page}" citations,
// preserving retrieval order.
func extractSources(contexts []ContextChunk) []string {
	sources := make([]string, 0, len(contexts))
	seen := make(map[string]bool)
	for _, c := range contexts {
		source := fmt.Sprintf("%s - Page %d", c.DocumentName, c.Page)
		if !seen[source] {
			seen[source] = true
			sources = append(sources, source)
		}
	}
	return sources
}

// needsVisualization reports whether the question asks for tabular or
// graphical output, in either language.
func needsVisualization(question string) bool {
	lower := strings.ToLower(question)
	for _, keyword := range vizKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// metaString reads a string payload field, empty when absent.
func metaString(meta map[string]any, key string) string {
	if meta == nil {
		return ""
	}
	s, _ := meta[key].(string)
	return s
}

// metaInt reads an integer payload field regardless of the numeric type the
// store round-tripped it to.
func metaInt(meta map[string]any, key string) int {
	if meta == nil {
		return 0
	}
	switch v := meta[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
