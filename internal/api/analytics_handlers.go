package api

import (
	"errors"
	"net/http"

	"github.com/schoolguard/sg-cctv/internal/analytics"
)

type AnalyticsHandler struct {
	Service *analytics.Service
	DevMode bool
}

func NewAnalyticsHandler(svc *analytics.Service, devMode bool) *AnalyticsHandler {
	return &AnalyticsHandler{Service: svc, DevMode: devMode}
}

// GET /api/analytics?timeframe=today|weekly|monthly
func (h *AnalyticsHandler) Timeframe(w http.ResponseWriter, r *http.Request) {
	timeframe := r.URL.Query().Get("timeframe")
	if timeframe == "" {
		timeframe = analytics.TimeframeToday
	}

	rows, count, err := h.Service.Timeframe(r.Context(), timeframe)
	if err != nil {
		if errors.Is(err, analytics.ErrInvalidTimeframe) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondServerError(w, h.DevMode, err)
		return
	}

	respondJSON(w, http.StatusOK, envelope{
		"success":   true,
		"timeframe": timeframe,
		"data":      jsonList(rows),
		"count":     count,
	})
}

// GET /api/analytics/stats
func (h *AnalyticsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.DetectionStats(r.Context())
	if err != nil {
		respondServerError(w, h.DevMode, err)
		return
	}
	respondData(w, http.StatusOK, stats)
}

// GET /api/analytics/peak-hours
func (h *AnalyticsHandler) PeakHours(w http.ResponseWriter, r *http.Request) {
	bands, err := h.Service.PeakHours(r.Context())
	if err != nil {
		respondServerError(w, h.DevMode, err)
		return
	}
	respondData(w, http.StatusOK, bands)
}

// GET /api/analytics/locations
func (h *AnalyticsHandler) Locations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.Service.Locations(r.Context())
	if err != nil {
		respondServerError(w, h.DevMode, err)
		return
	}
	respondData(w, http.StatusOK, locations)
}

// GET /api/analytics/bullying-stats
func (h *AnalyticsHandler) BullyingStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.BullyingStats(r.Context())
	if err != nil {
		respondServerError(w, h.DevMode, err)
		return
	}
	respondData(w, http.StatusOK, stats)
}
