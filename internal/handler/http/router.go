package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hours-report/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hours-report/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v3"
)

// NewRouter exposes the vendor export endpoint behind a static token.
func NewRouter(logger *slog.Logger, token string, exportHandler ExportHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	r.Route("/api/relatorio-atendimento", func(r chi.Router) {
		r.Use(middleware.TokenRequired(token))
		r.Post("/exporta", exportHandler.Export)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "route not found")
	})

	return r
}
