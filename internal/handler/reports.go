package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/librarydesk/internal/service"
)

// ReportHandler serves the admin circulation views
type ReportHandler struct {
	reports *service.ReportService
	logger  *slog.Logger
}

// NewReportHandler creates the admin reporting handler
func NewReportHandler(reports *service.ReportService, logger *slog.Logger) *ReportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportHandler{reports: reports, logger: logger}
}

// Records handles GET /api/admin/borrow-records
func (h *ReportHandler) Records(w http.ResponseWriter, r *http.Request) {
	records, err := h.reports.AllRecords(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, "Borrow records fetched successfully", toRecordResponses(records))
}

// Monthly handles GET /api/admin/reports/monthly?month=YYYY-MM
func (h *ReportHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.Monthly(r.Context(), r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, "Monthly report generated successfully", toReportResponse(report))
}
