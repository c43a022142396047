package api

import (
	"net/http"
	"time"
)

type HealthHandler struct {
	Environment string
}

func NewHealthHandler(environment string) *HealthHandler {
	return &HealthHandler{Environment: environment}
}

// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, envelope{
		"success":     true,
		"message":     "CCTV Backend API is running",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": h.Environment,
	})
}
