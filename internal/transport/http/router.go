package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"nsecli/internal/infrastructure"
	"nsecli/internal/middleware"
)

// NewRouter assembles the API router: report routes under /api, the
// Prometheus scrape endpoint, and health. metrics and metricsHandler may be
// nil when metrics are disabled.
func NewRouter(service *ReportService, logger *slog.Logger, metrics *infrastructure.PipelineMetrics, metricsHandler http.Handler) chi.Router {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(chimiddleware.Timeout(30 * time.Second))
	if metrics != nil {
		r.Use(middleware.Metrics(metrics))
	}

	r.Mount("/api", NewReportHandler(service, logger).Routes())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	return r
}
