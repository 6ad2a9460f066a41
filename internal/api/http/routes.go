package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the HTTP router: the thin download facade plus health,
// status and metrics.
func NewRouter(downloads *DownloadHandler, status *StatusHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Post("/resolve", downloads.Resolve)
	r.Post("/download", downloads.Download)
	r.Post("/download/batch", downloads.DownloadBatch)
	r.Put("/cookies/{userID}", downloads.UploadCookies)
	r.Get("/cookies/{userID}", downloads.CookieStatus)

	r.Get("/healthz", status.Healthz)
	r.Get("/status", status.Status)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
