package http

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "nsecli/internal/errors"
)

// ReportHandler exposes the generated datasets.
type ReportHandler struct {
	service *ReportService
	logger  *slog.Logger
}

// NewReportHandler creates a report handler.
func NewReportHandler(service *ReportService, logger *slog.Logger) *ReportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportHandler{
		service: service,
		logger:  logger.With(slog.String("component", "report_handler")),
	}
}

// Routes returns the report routes.
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/symbols", h.GetSymbols)
	r.Route("/symbols/{symbol}", func(r chi.Router) {
		r.Use(h.SymbolCtx)
		r.Get("/adjusted", h.GetAdjustedSeries)
	})
	r.Get("/comparisons", h.GetComparisons)
	r.Get("/runs/last", h.GetLastRun)

	return r
}

// SymbolCtx validates the symbol parameter.
func (h *ReportHandler) SymbolCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		symbol := chi.URLParam(r, "symbol")
		if symbol == "" {
			render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrValidation("symbol", "Symbol is required")))
			return
		}
		if len(symbol) > 20 || symbol != strings.ToUpper(symbol) {
			render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrValidation("symbol", "Symbols are upper-case, at most 20 characters")))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetSymbols handles GET /api/symbols.
func (h *ReportHandler) GetSymbols(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.service.Symbols(r.Context())
	if err != nil {
		h.renderLoadError(w, r, "symbols", err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"symbols": symbols,
		"count":   len(symbols),
	})
}

// GetAdjustedSeries handles GET /api/symbols/{symbol}/adjusted.
func (h *ReportHandler) GetAdjustedSeries(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	rows, err := h.service.AdjustedSeries(r.Context(), symbol)
	if err != nil {
		h.renderLoadError(w, r, "adjusted series", err)
		return
	}
	if len(rows) == 0 {
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrSymbolNotFound))
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"symbol": symbol,
		"rows":   rows,
		"count":  len(rows),
	})
}

// GetComparisons handles GET /api/comparisons.
func (h *ReportHandler) GetComparisons(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.Comparisons(r.Context())
	if err != nil {
		h.renderLoadError(w, r, "comparisons", err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"records": records,
		"count":   len(records),
	})
}

// GetLastRun handles GET /api/runs/last.
func (h *ReportHandler) GetLastRun(w http.ResponseWriter, r *http.Request) {
	meta, err := h.service.LastRun(r.Context())
	if err != nil {
		h.renderLoadError(w, r, "run metadata", err)
		return
	}
	if meta == nil {
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.NotFoundError("run metadata")))
		return
	}
	render.JSON(w, r, meta)
}

// renderLoadError maps a dataset load failure: a missing file means the
// pipeline has not produced that output yet, anything else is internal.
func (h *ReportHandler) renderLoadError(w http.ResponseWriter, r *http.Request, what string, err error) {
	reqID := middleware.GetReqID(r.Context())
	if errors.Is(err, os.ErrNotExist) {
		h.logger.InfoContext(r.Context(), "requested output not generated yet",
			slog.String("request_id", reqID),
			slog.String("output", what))
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrReportNotFound))
		return
	}
	h.logger.ErrorContext(r.Context(), "failed to load output",
		slog.String("request_id", reqID),
		slog.String("output", what),
		slog.String("error", err.Error()))
	render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrInternalServer))
}
