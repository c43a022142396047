package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/schoolguard/sg-cctv/internal/data"
)

// Detection is the wire payload AI workers publish per observed event.
type Detection struct {
	CameraID     int64     `json:"camera_id"`
	IncidentType string    `json:"incident_type"`
	Severity     string    `json:"severity"`
	Confidence   float64   `json:"confidence_score"`
	DetectedAt   time.Time `json:"detected_at"`
	VideoClipKey *string   `json:"video_clip_key,omitempty"`
	ThumbnailKey *string   `json:"thumbnail_key,omitempty"`
	Message      string    `json:"message,omitempty"`
}

type IncidentWriter interface {
	Create(ctx context.Context, i *data.Incident) error
}

type AlertWriter interface {
	Create(ctx context.Context, a *data.Alert) error
}

type RollupWriter interface {
	AddToBucket(ctx context.Context, date time.Time, cameraID int64, hour int, confidence float64) error
}

// Consumer turns published detections into incident, alert, and rollup
// rows. Each message is processed at-most-once per dedup window; failures
// are logged and the message dropped, never redelivered.
type Consumer struct {
	conn      *nats.Conn
	subject   string
	incidents IncidentWriter
	alerts    AlertWriter
	rollups   RollupWriter
	dedup     *Dedup
	sub       *nats.Subscription
	timeout   time.Duration
}

func NewConsumer(conn *nats.Conn, subject string, incidents IncidentWriter, alerts AlertWriter, rollups RollupWriter) *Consumer {
	return &Consumer{
		conn:      conn,
		subject:   subject,
		incidents: incidents,
		alerts:    alerts,
		rollups:   rollups,
		dedup:     NewDedup(4096, 5*time.Second),
		timeout:   10 * time.Second,
	}
}

func (c *Consumer) Start() error {
	sub, err := c.conn.Subscribe(c.subject, func(msg *nats.Msg) {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		if err := c.handle(ctx, msg.Data); err != nil {
			log.Printf("ingest: drop message: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", c.subject, err)
	}
	c.sub = sub
	return nil
}

func (c *Consumer) Stop() {
	if c.sub != nil {
		c.sub.Unsubscribe()
	}
}

func (c *Consumer) handle(ctx context.Context, payload []byte) error {
	var det Detection
	if err := json.Unmarshal(payload, &det); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if det.DetectedAt.IsZero() {
		det.DetectedAt = time.Now()
	}
	if det.Severity == "" {
		det.Severity = "warning"
	}

	if c.dedup.IsDuplicate(BuildDedupKey(det.CameraID, det.IncidentType, det.DetectedAt)) {
		return nil
	}

	inc := &data.Incident{
		CameraID:        &det.CameraID,
		IncidentType:    det.IncidentType,
		Severity:        det.Severity,
		ConfidenceScore: det.Confidence,
		DetectedAt:      det.DetectedAt,
		VideoClipKey:    det.VideoClipKey,
		ThumbnailKey:    det.ThumbnailKey,
	}
	if err := c.incidents.Create(ctx, inc); err != nil {
		return fmt.Errorf("incident insert: %w", err)
	}

	alertType := data.AlertTypeWarning
	if det.Severity == "critical" {
		alertType = data.AlertTypeCritical
	}
	message := det.Message
	if message == "" {
		message = fmt.Sprintf("%s detected (%.0f%% confidence)", det.IncidentType, det.Confidence)
	}

	alert := &data.Alert{
		IncidentID: &inc.ID,
		CameraID:   &det.CameraID,
		AlertType:  alertType,
		Message:    message,
	}
	if err := c.alerts.Create(ctx, alert); err != nil {
		// Incident row stands; the alert can be raised manually.
		log.Printf("ingest: alert insert for incident %d: %v", inc.ID, err)
	}

	day := det.DetectedAt.Truncate(24 * time.Hour)
	if err := c.rollups.AddToBucket(ctx, day, det.CameraID, det.DetectedAt.Hour(), det.Confidence); err != nil {
		log.Printf("ingest: rollup for incident %d: %v", inc.ID, err)
	}
	return nil
}
