package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/schoolguard/sg-cctv/internal/cameras"
	"github.com/schoolguard/sg-cctv/internal/data"
	"github.com/schoolguard/sg-cctv/internal/storage"
)

type CameraHandler struct {
	Service *cameras.Service
	DevMode bool
}

func NewCameraHandler(svc *cameras.Service, devMode bool) *CameraHandler {
	return &CameraHandler{Service: svc, DevMode: devMode}
}

// GET /api/cameras
func (h *CameraHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.Service.ListAll(r.Context())
	if err != nil {
		h.cameraError(w, err)
		return
	}
	respondList(w, views, len(views))
}

// GET /api/cameras/active
func (h *CameraHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	views, err := h.Service.ListActive(r.Context())
	if err != nil {
		h.cameraError(w, err)
		return
	}
	respondList(w, views, len(views))
}

// GET /api/cameras/{id}
func (h *CameraHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusNotFound, "Camera not found")
		return
	}

	view, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.cameraError(w, err)
		return
	}
	respondData(w, http.StatusOK, view)
}

// PATCH /api/cameras/{id}/status
func (h *CameraHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusNotFound, "Camera not found")
		return
	}

	var req struct {
		IsActive bool `json:"isActive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	camera, err := h.Service.SetActive(r.Context(), id, req.IsActive)
	if err != nil {
		h.cameraError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "Camera status updated", camera)
}

// POST /api/cameras/preferences
func (h *CameraHandler) Preferences(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ActiveCameraIDs []int64 `json:"activeCameraIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "activeCameraIds must be an array")
		return
	}

	result, err := h.Service.UpdatePreferences(r.Context(), req.ActiveCameraIDs)
	if err != nil {
		if errors.Is(err, cameras.ErrTooFewActiveCameras) {
			respondError(w, http.StatusBadRequest, "At least 4 cameras must be active")
			return
		}
		h.cameraError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "Camera preferences updated", result)
}

func (h *CameraHandler) cameraError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, data.ErrRecordNotFound):
		respondError(w, http.StatusNotFound, "Camera not found")
	case errors.Is(err, storage.ErrObjectNotFound):
		respondError(w, http.StatusNotFound, "Video not found in storage")
	default:
		respondServerError(w, h.DevMode, err)
	}
}
