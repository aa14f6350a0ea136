package http

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"docqa/internal/handlers"
	"docqa/internal/ingest"
	"docqa/internal/rag"
	"docqa/internal/storage"
	"docqa/internal/viz"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Pipeline     *ingest.Pipeline
	DocRepo      storage.DocumentStore
	RAGEngine    rag.Engine
	VizExtractor *viz.Extractor
	HealthCheck  handlers.CollectionChecker
	DB           *sql.DB
	Collection   string
}

// NewRouter creates the HTTP router with all API routes wired.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	documentsHandler := handlers.NewDocumentsHandler(deps.Pipeline, deps.DocRepo, deps.RAGEngine)
	askHandler := handlers.NewAskHandler(deps.RAGEngine, deps.VizExtractor)
	statsHandler := handlers.NewStatsHandler(deps.Pipeline)
	healthHandler := handlers.NewHealthHandler(deps.HealthCheck, deps.DB, deps.Collection)

	r.Route("/api", func(r chi.Router) {
		r.Route("/documents", func(r chi.Router) {
			r.Post("/", documentsHandler.Upload)
			r.Get("/", documentsHandler.List)
			r.Post("/process-all", documentsHandler.ProcessAll)
			r.Post("/{name}/process", documentsHandler.Process)
			r.Get("/{name}/summary", documentsHandler.Summary)
			r.Delete("/{name}", documentsHandler.Delete)
		})
		r.Method(http.MethodPost, "/ask", askHandler)
		r.Method(http.MethodGet, "/stats", statsHandler)
	})

	r.Method(http.MethodGet, "/healthz", healthHandler)

	return r
}
