package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/schoolguard/sg-cctv/internal/alerts"
	"github.com/schoolguard/sg-cctv/internal/analytics"
	"github.com/schoolguard/sg-cctv/internal/api"
	"github.com/schoolguard/sg-cctv/internal/cameras"
	"github.com/schoolguard/sg-cctv/internal/config"
	"github.com/schoolguard/sg-cctv/internal/data"
	"github.com/schoolguard/sg-cctv/internal/incidents"
	"github.com/schoolguard/sg-cctv/internal/ingest"
	"github.com/schoolguard/sg-cctv/internal/live"
	"github.com/schoolguard/sg-cctv/internal/metrics"
	"github.com/schoolguard/sg-cctv/internal/middleware"
	"github.com/schoolguard/sg-cctv/internal/ratelimit"
	"github.com/schoolguard/sg-cctv/internal/reports"
	"github.com/schoolguard/sg-cctv/internal/storage"
)

func main() {
	cfgPath := flag.String("config", "config/default.yaml", "Config file path")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		pingCancel()
		log.Fatalf("Failed to ping database: %v", err)
	}
	pingCancel()

	// Models
	cameraModel := data.CameraModel{DB: db}
	incidentModel := data.IncidentModel{DB: db}
	alertModel := data.AlertModel{DB: db}
	analyticsModel := data.AnalyticsModel{DB: db}
	reportModel := data.ReportModel{DB: db}

	// Storage signer
	signer, err := storage.NewSigner(ctx, storage.Config{
		Region:          cfg.S3.Region,
		Bucket:          cfg.S3.Bucket,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
		Endpoint:        cfg.S3.Endpoint,
		URLExpiration:   cfg.S3.URLExpiration,
	})
	if err != nil {
		log.Fatalf("Failed to init storage signer: %v", err)
	}

	// Live alert stream
	hub := live.NewHub()

	// Services
	cameraService := cameras.NewService(cameraModel, signer)
	incidentService := incidents.NewService(incidentModel)
	alertService := alerts.NewService(alertModel, hub)
	analyticsService := analytics.NewService(analyticsModel, incidentModel)
	reportService := reports.NewService(reportModel)

	// Ingest pipeline
	var consumer *ingest.Consumer
	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL,
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
		)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer nc.Close()

		consumer = ingest.NewConsumer(nc, cfg.NATS.Subject, incidentService, alertService, analyticsModel)
		if err := consumer.Start(); err != nil {
			log.Fatalf("Failed to start ingest consumer: %v", err)
		}
		defer consumer.Stop()
		log.Printf("Ingest consumer listening on %s", cfg.NATS.Subject)
	} else {
		log.Println("NATS_URL not set, detection ingest disabled")
	}

	// Rate limiting
	var rlMiddleware *middleware.RateLimitMiddleware
	if cfg.RateLimit.Enabled && cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		defer rdb.Close()

		limiter := ratelimit.NewLimiter(rdb, os.Getenv("RATE_LIMIT_SALT"))
		rlMiddleware = middleware.NewRateLimitMiddleware(limiter,
			ratelimit.ConfigFor(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}

	// Metrics
	collector := metrics.NewCollector(incidentModel, alertModel, hub)
	collector.Start(ctx, 15*time.Second)
	httpMetrics := middleware.NewHTTPMetrics(collector.Registry())

	// CORS allow-list with hot reload
	origins := config.NewOriginSet(cfg.CORS.AllowedOrigins)
	config.WatchOrigins(ctx, *cfgPath, origins)

	environment := "production"
	if cfg.DevMode {
		environment = "development"
	}

	router := api.NewRouter(api.RouterConfig{
		Cameras:        api.NewCameraHandler(cameraService, cfg.DevMode),
		Incidents:      api.NewIncidentHandler(incidentService, cfg.DevMode),
		Alerts:         api.NewAlertHandler(alertService, cfg.DevMode),
		Analytics:      api.NewAnalyticsHandler(analyticsService, cfg.DevMode),
		Reports:        api.NewReportHandler(reportService, cfg.DevMode),
		Health:         api.NewHealthHandler(environment),
		Origins:        origins,
		RateLimit:      rlMiddleware,
		HTTPMetrics:    httpMetrics,
		MetricsHandler: collector.Handler(),
		Hub:            hub,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // websocket streaming
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s (%s)", cfg.Port, environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	log.Println("Server stopped.")
}
