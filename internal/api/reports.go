package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/interview-labs/internal/domain"
	"github.com/ashureev/interview-labs/internal/store"
)

// ReportHandler serves persisted interview reports.
type ReportHandler struct {
	*Handler
}

// NewReportHandler creates a report handler.
func NewReportHandler(base *Handler) *ReportHandler {
	return &ReportHandler{Handler: base}
}

// RegisterRoutes registers report routes.
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/reports", func(r chi.Router) {
		r.Get("/", h.ListReports)
		r.Get("/{id}", h.GetReport)
	})
}

// ListReports returns the most recent reports, newest first.
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	reports, err := h.reports.ListReports(r.Context(), limit)
	if err != nil {
		slog.Error("Failed to list reports", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list reports")
		return
	}
	if reports == nil {
		reports = []*domain.StoredReport{}
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
	})
}

// GetReport returns a single report by id.
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		Error(w, http.StatusBadRequest, "invalid report id")
		return
	}

	report, err := h.reports.GetReport(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		Error(w, http.StatusNotFound, "report not found")
		return
	}
	if err != nil {
		slog.Error("Failed to get report", "error", err, "report_id", id)
		Error(w, http.StatusInternalServerError, "failed to load report")
		return
	}

	JSON(w, http.StatusOK, report)
}
