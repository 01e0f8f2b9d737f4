package http

import (
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewServer создает роутер с эндпоинтами API, контактной формой и статикой сайта.
// staticDir может быть пустым: тогда статические файлы не раздаются.
// trustProxy включает middleware.RealIP; без него адрес клиента берется только из соединения.
func NewServer(log *slog.Logger, h *Handler, staticDir string, trustProxy bool) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if trustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(loggingMiddleware(log))
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware())

	r.HandleFunc("/api/headlines", h.getHeadlines)
	r.HandleFunc("/rss-headlines", h.getHeadlines)
	r.Get("/api/health", h.healthCheck)
	if h.contact != nil {
		r.HandleFunc("/contact", h.submitContact)
	}

	if staticDir != "" {
		fs := http.FileServer(http.Dir(staticDir))
		r.Handle("/static/*", http.StripPrefix("/static/", fs))
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
		})
	}
	return r
}
