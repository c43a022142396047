package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/schoolguard/sg-cctv/internal/config"
	"github.com/schoolguard/sg-cctv/internal/live"
	"github.com/schoolguard/sg-cctv/internal/middleware"
)

// RouterConfig carries everything the HTTP surface needs. RateLimit and
// Metrics are optional; nil disables the corresponding middleware.
type RouterConfig struct {
	Cameras   *CameraHandler
	Incidents *IncidentHandler
	Alerts    *AlertHandler
	Analytics *AnalyticsHandler
	Reports   *ReportHandler
	Health    *HealthHandler

	Origins        *config.OriginSet
	RateLimit      *middleware.RateLimitMiddleware
	HTTPMetrics    *middleware.HTTPMetrics
	MetricsHandler http.Handler
	Hub            *live.Hub
}

func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(middleware.CORS(cfg.Origins))
	if cfg.RateLimit != nil {
		r.Use(cfg.RateLimit.Limit)
	}
	if cfg.HTTPMetrics != nil {
		r.Use(cfg.HTTPMetrics.Instrument)
	}

	r.Get("/health", cfg.Health.Check)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/cameras", func(r chi.Router) {
		r.Get("/", cfg.Cameras.List)
		r.Get("/active", cfg.Cameras.ListActive)
		r.Get("/{id}", cfg.Cameras.Get)
		r.Patch("/{id}/status", cfg.Cameras.SetStatus)
		r.Post("/preferences", cfg.Cameras.Preferences)
	})

	r.Route("/api/incidents", func(r chi.Router) {
		r.Get("/", cfg.Incidents.List)
		r.Get("/recent", cfg.Incidents.Recent)
		r.Get("/stats/counts", cfg.Incidents.Counts)
		r.Get("/{id}", cfg.Incidents.Get)
		r.Patch("/{id}/status", cfg.Incidents.UpdateStatus)
	})

	r.Route("/api/alerts", func(r chi.Router) {
		r.Get("/", cfg.Alerts.ListActive)
		r.Get("/all", cfg.Alerts.ListAll)
		r.Post("/", cfg.Alerts.Create)
		r.Post("/dismiss", cfg.Alerts.DismissMany)
		r.Post("/{id}/dismiss", cfg.Alerts.Dismiss)
		if cfg.Hub != nil {
			r.Get("/stream", cfg.Hub.ServeWS)
		}
	})

	r.Route("/api/analytics", func(r chi.Router) {
		r.Get("/", cfg.Analytics.Timeframe)
		r.Get("/stats", cfg.Analytics.Stats)
		r.Get("/peak-hours", cfg.Analytics.PeakHours)
		r.Get("/locations", cfg.Analytics.Locations)
		r.Get("/bullying-stats", cfg.Analytics.BullyingStats)
	})

	r.Route("/api/reports", func(r chi.Router) {
		r.Get("/", cfg.Reports.List)
		r.Post("/generate", cfg.Reports.Generate)
		r.Get("/{id}/download", cfg.Reports.Download)
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondJSON(w, http.StatusNotFound, envelope{
			"success": false,
			"message": "Route not found",
			"path":    req.URL.Path,
		})
	})

	return r
}
