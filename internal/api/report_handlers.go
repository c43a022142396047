package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/schoolguard/sg-cctv/internal/data"
	"github.com/schoolguard/sg-cctv/internal/reports"
)

type ReportHandler struct {
	Service *reports.Service
	DevMode bool
}

func NewReportHandler(svc *reports.Service, devMode bool) *ReportHandler {
	return &ReportHandler{Service: svc, DevMode: devMode}
}

// GET /api/reports
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context())
	if err != nil {
		respondServerError(w, h.DevMode, err)
		return
	}
	respondList(w, list, len(list))
}

// POST /api/reports/generate
func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReportType  string `json:"reportType"`
		DateRange   string `json:"dateRange"`
		GeneratedBy string `json:"generatedBy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	report, err := h.Service.Generate(r.Context(), req.ReportType, req.DateRange, req.GeneratedBy)
	if err != nil {
		if errors.Is(err, reports.ErrMissingType) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondServerError(w, h.DevMode, err)
		return
	}
	respondMessage(w, http.StatusOK, "Report generated successfully", report)
}

// GET /api/reports/{id}/download
func (h *ReportHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusNotFound, "Report not found")
		return
	}

	if _, err := h.Service.Get(r.Context(), id); err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Report not found")
			return
		}
		respondServerError(w, h.DevMode, err)
		return
	}

	// TODO: render and stream the PDF once report files are generated
	respondMessage(w, http.StatusOK, "Download functionality to be implemented", nil)
}
