package data

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
)

const (
	AlertTypeCritical = "critical"
	AlertTypeWarning  = "warning"
)

// Alert is an operator notification. Both the incident and camera links are
// weak: an alert can outlive either, and may never have had an incident at
// all (e.g. a trigger that produced no formal incident record).
type Alert struct {
	ID          int64      `json:"id"`
	IncidentID  *int64     `json:"incident_id"`
	CameraID    *int64     `json:"camera_id"`
	AlertType   string     `json:"alert_type"`
	Message     string     `json:"message"`
	Dismissed   bool       `json:"dismissed"`
	DismissedBy *string    `json:"dismissed_by"`
	DismissedAt *time.Time `json:"dismissed_at"`
	CreatedAt   time.Time  `json:"created_at"`

	// Joined enrichment
	IncidentType    *string  `json:"incident_type"`
	Severity        *string  `json:"severity"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`
	CameraName      *string  `json:"camera_name"`
	CameraLabel     *string  `json:"cameraId,omitempty"`
	Location        *string  `json:"location,omitempty"`
}

type AlertModel struct {
	DB DBTX
}

const alertSelect = `
	SELECT a.id, a.incident_id, a.camera_id, a.alert_type, a.message,
	       a.dismissed, a.dismissed_by, a.dismissed_at, a.created_at,
	       i.incident_type, i.severity, i.confidence_score,
	       c.name, c.camera_label, c.location
	FROM alerts a
	LEFT JOIN incidents i ON a.incident_id = i.id
	LEFT JOIN cameras c ON a.camera_id = c.id`

func scanAlert(row interface{ Scan(dest ...any) error }) (*Alert, error) {
	var a Alert
	err := row.Scan(
		&a.ID, &a.IncidentID, &a.CameraID, &a.AlertType, &a.Message,
		&a.Dismissed, &a.DismissedBy, &a.DismissedAt, &a.CreatedAt,
		&a.IncidentType, &a.Severity, &a.ConfidenceScore,
		&a.CameraName, &a.CameraLabel, &a.Location,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (m AlertModel) queryList(ctx context.Context, query string, args ...any) ([]*Alert, error) {
	rows, err := m.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (m AlertModel) ListActive(ctx context.Context) ([]*Alert, error) {
	return m.queryList(ctx, alertSelect+`
	WHERE a.dismissed = false
	ORDER BY a.created_at DESC`)
}

func (m AlertModel) ListAll(ctx context.Context) ([]*Alert, error) {
	return m.queryList(ctx, alertSelect+`
	ORDER BY a.created_at DESC`)
}

func (m AlertModel) GetByID(ctx context.Context, id int64) (*Alert, error) {
	a, err := scanAlert(m.DB.QueryRowContext(ctx, alertSelect+` WHERE a.id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return a, nil
}

func (m AlertModel) Insert(ctx context.Context, a *Alert) error {
	query := `
		INSERT INTO alerts (incident_id, camera_id, alert_type, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, dismissed, created_at`

	return m.DB.QueryRowContext(ctx, query,
		a.IncidentID, a.CameraID, a.AlertType, a.Message,
	).Scan(&a.ID, &a.Dismissed, &a.CreatedAt)
}

// Dismiss marks the alert dismissed. Re-dismissing is an allowed no-op that
// rewrites the dismissal timestamp.
func (m AlertModel) Dismiss(ctx context.Context, id int64, dismissedBy string) (*Alert, error) {
	query := `
		UPDATE alerts
		SET dismissed = true, dismissed_by = $1, dismissed_at = CURRENT_TIMESTAMP
		WHERE id = $2
		RETURNING id`

	var updatedID int64
	err := m.DB.QueryRowContext(ctx, query, dismissedBy, id).Scan(&updatedID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return m.GetByID(ctx, updatedID)
}

func (m AlertModel) DismissMany(ctx context.Context, ids []int64, dismissedBy string) (int64, error) {
	query := `
		UPDATE alerts
		SET dismissed = true, dismissed_by = $1, dismissed_at = CURRENT_TIMESTAMP
		WHERE id = ANY($2)`

	res, err := m.DB.ExecContext(ctx, query, dismissedBy, pq.Array(ids))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
