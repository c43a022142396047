package metrics

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/schoolguard/sg-cctv/internal/data"
)

type IncidentCounter interface {
	Counts(ctx context.Context) (*data.IncidentCounts, error)
}

type AlertLister interface {
	ListActive(ctx context.Context) ([]*data.Alert, error)
}

type StreamCounter interface {
	ClientCount() int
}

// Collector polls domain state into Prometheus gauges on a fixed interval.
// It keeps its own registry so domain gauges and the HTTP middleware share
// one /metrics endpoint without polluting the default registry.
type Collector struct {
	registry *prometheus.Registry

	incidents IncidentCounter
	alerts    AlertLister
	streams   StreamCounter

	up               prometheus.Gauge
	pendingIncidents prometheus.Gauge
	totalIncidents   prometheus.Gauge
	activeAlerts     prometheus.Gauge
	streamClients    prometheus.Gauge
}

func NewCollector(incidents IncidentCounter, alerts AlertLister, streams StreamCounter) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry:  reg,
		incidents: incidents,
		alerts:    alerts,
		streams:   streams,
		up: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cctv_metrics_up",
			Help: "Whether the last poll of domain state succeeded (1=up, 0=down)",
		}),
		pendingIncidents: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cctv_incidents_pending",
			Help: "Incidents awaiting review",
		}),
		totalIncidents: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cctv_incidents_total",
			Help: "All incidents ever recorded",
		}),
		activeAlerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cctv_alerts_active",
			Help: "Undismissed alerts",
		}),
		streamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cctv_stream_clients",
			Help: "Connected websocket dashboard clients",
		}),
	}
	reg.MustRegister(c.up, c.pendingIncidents, c.totalIncidents, c.activeAlerts, c.streamClients)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Start polls until ctx is cancelled.
func (c *Collector) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		c.poll(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.poll(ctx)
			}
		}
	}()
}

func (c *Collector) poll(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	counts, err := c.incidents.Counts(ctx)
	if err != nil {
		log.Printf("metrics: incident poll failed: %v", err)
		c.up.Set(0)
		return
	}
	active, err := c.alerts.ListActive(ctx)
	if err != nil {
		log.Printf("metrics: alert poll failed: %v", err)
		c.up.Set(0)
		return
	}

	c.pendingIncidents.Set(float64(counts.Pending))
	c.totalIncidents.Set(float64(counts.Total))
	c.activeAlerts.Set(float64(len(active)))
	if c.streams != nil {
		c.streamClients.Set(float64(c.streams.ClientCount()))
	}
	c.up.Set(1)
}
