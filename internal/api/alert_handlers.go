package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/schoolguard/sg-cctv/internal/alerts"
	"github.com/schoolguard/sg-cctv/internal/data"
)

type AlertHandler struct {
	Service *alerts.Service
	DevMode bool
}

func NewAlertHandler(svc *alerts.Service, devMode bool) *AlertHandler {
	return &AlertHandler{Service: svc, DevMode: devMode}
}

// GET /api/alerts
func (h *AlertHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListActive(r.Context())
	if err != nil {
		respondServerError(w, h.DevMode, err)
		return
	}
	respondList(w, list, len(list))
}

// GET /api/alerts/all
func (h *AlertHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListAll(r.Context())
	if err != nil {
		respondServerError(w, h.DevMode, err)
		return
	}
	respondList(w, list, len(list))
}

// POST /api/alerts
func (h *AlertHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IncidentID *int64 `json:"incident_id"`
		CameraID   *int64 `json:"camera_id"`
		AlertType  string `json:"alert_type"`
		Message    string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	alert := &data.Alert{
		IncidentID: req.IncidentID,
		CameraID:   req.CameraID,
		AlertType:  req.AlertType,
		Message:    req.Message,
	}
	if err := h.Service.Create(r.Context(), alert); err != nil {
		if errors.Is(err, alerts.ErrInvalidAlertType) || errors.Is(err, alerts.ErrEmptyMessage) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondServerError(w, h.DevMode, err)
		return
	}
	respondMessage(w, http.StatusCreated, "Alert created successfully", alert)
}

// POST /api/alerts/{id}/dismiss
func (h *AlertHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusNotFound, "Alert not found")
		return
	}

	var req struct {
		DismissedBy string `json:"dismissedBy"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	alert, err := h.Service.Dismiss(r.Context(), id, req.DismissedBy)
	if err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Alert not found")
			return
		}
		respondServerError(w, h.DevMode, err)
		return
	}
	respondMessage(w, http.StatusOK, "Alert dismissed successfully", alert)
}

// POST /api/alerts/dismiss
func (h *AlertHandler) DismissMany(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs         []int64 `json:"ids"`
		DismissedBy string  `json:"dismissedBy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	count, err := h.Service.DismissMany(r.Context(), req.IDs, req.DismissedBy)
	if err != nil {
		if errors.Is(err, alerts.ErrNoIDs) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondServerError(w, h.DevMode, err)
		return
	}
	respondMessage(w, http.StatusOK, "Alerts dismissed successfully", envelope{"dismissed": count})
}
