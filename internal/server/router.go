package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shouni/creative-hub/internal/server/handlers"
)

// NewRouter は、ミドルウェアとルーティングを統合した http.Handler を構築します。
func NewRouter(h *handlers.Handler) http.Handler {
	r := chi.NewRouter()

	setupCommonMiddleware(r)
	setupRoutes(r, h)

	return r
}

func setupCommonMiddleware(r *chi.Mux) {
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.CleanPath)
}

func setupRoutes(r chi.Router, h *handlers.Handler) {
	r.Get("/healthz", h.Healthz)

	// --- セッション (ワークスペース) 単位のルート ---
	r.Route("/api", func(r chi.Router) {
		r.Use(h.WorkspaceMiddleware)

		r.Get("/tools", h.Catalog)
		r.Route("/tools/{tool}", func(r chi.Router) {
			r.Get("/", h.GetTool)
			r.Post("/", h.RunTool)
			r.Delete("/", h.ResetTool)
			r.Post("/items/{index}", h.GenerateItem)
			r.Post("/authorize", h.AuthorizeTool)
			r.Get("/media", h.ToolMedia)
		})

		r.Get("/credential", h.GetCredential)
		r.Post("/credential", h.SelectCredential)
		r.Delete("/credential", h.ClearCredential)
	})
}
