package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/schoolguard/sg-cctv/internal/data"
	"github.com/schoolguard/sg-cctv/internal/incidents"
)

type IncidentHandler struct {
	Service *incidents.Service
	DevMode bool
}

func NewIncidentHandler(svc *incidents.Service, devMode bool) *IncidentHandler {
	return &IncidentHandler{Service: svc, DevMode: devMode}
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// GET /api/incidents?limit=100&offset=0&status=pending
func (h *IncidentHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		list []*data.Incident
		err  error
	)

	if status := r.URL.Query().Get("status"); status != "" {
		list, err = h.Service.ListByStatus(r.Context(), status)
	} else {
		list, err = h.Service.List(r.Context(), queryInt(r, "limit", 100), queryInt(r, "offset", 0))
	}
	if err != nil {
		if errors.Is(err, incidents.ErrInvalidStatus) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondServerError(w, h.DevMode, err)
		return
	}
	respondList(w, list, len(list))
}

// GET /api/incidents/recent?limit=10
func (h *IncidentHandler) Recent(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListRecent(r.Context(), queryInt(r, "limit", 10))
	if err != nil {
		respondServerError(w, h.DevMode, err)
		return
	}
	respondList(w, list, len(list))
}

// GET /api/incidents/{id}
func (h *IncidentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusNotFound, "Incident not found")
		return
	}

	incident, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.incidentError(w, err)
		return
	}
	respondData(w, http.StatusOK, incident)
}

// PATCH /api/incidents/{id}/status
func (h *IncidentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusNotFound, "Incident not found")
		return
	}

	var req struct {
		Status     string  `json:"status"`
		ResolvedBy *string `json:"resolvedBy"`
		Notes      *string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	incident, err := h.Service.UpdateStatus(r.Context(), id, req.Status, req.ResolvedBy, req.Notes)
	if err != nil {
		h.incidentError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, fmt.Sprintf("Incident marked as %s", req.Status), incident)
}

// GET /api/incidents/stats/counts
func (h *IncidentHandler) Counts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Service.Counts(r.Context())
	if err != nil {
		respondServerError(w, h.DevMode, err)
		return
	}
	respondData(w, http.StatusOK, counts)
}

func (h *IncidentHandler) incidentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, data.ErrRecordNotFound):
		respondError(w, http.StatusNotFound, "Incident not found")
	case errors.Is(err, incidents.ErrInvalidStatus), errors.Is(err, incidents.ErrAlreadyFinalized):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondServerError(w, h.DevMode, err)
	}
}
