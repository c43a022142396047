package data

import (
	"context"
	"database/sql"
	"time"
)

// Incident lifecycle statuses. The set is closed; everything downstream
// (counts, accuracy rate, trend windows) assumes no fourth state exists.
const (
	IncidentStatusPending       = "pending"
	IncidentStatusResolved      = "resolved"
	IncidentStatusFalsePositive = "false_positive"
)

// Incident is a detected event. Camera fields are joined display data and
// may be nil when the owning camera was removed (weak reference).
type Incident struct {
	ID              int64      `json:"id"`
	CameraID        *int64     `json:"camera_id"`
	IncidentType    string     `json:"incident_type"`
	Severity        string     `json:"severity"`
	ConfidenceScore float64    `json:"confidence_score"`
	DetectedAt      time.Time  `json:"detected_at"`
	Status          string     `json:"status"`
	ResolvedBy      *string    `json:"resolved_by"`
	Notes           *string    `json:"notes"`
	ResolvedAt      *time.Time `json:"resolved_at"`
	VideoClipKey    *string    `json:"video_clip_key,omitempty"`
	ThumbnailKey    *string    `json:"thumbnail_key,omitempty"`

	CameraName  *string `json:"camera_name"`
	Location    *string `json:"location"`
	CameraLabel *string `json:"cameraId,omitempty"`
}

// IncidentCounts is a status breakdown snapshot. Total always equals
// Pending+Resolved+FalsePositives because the status set is closed.
type IncidentCounts struct {
	Total          int `json:"total"`
	Pending        int `json:"pending"`
	Resolved       int `json:"resolved"`
	FalsePositives int `json:"false_positives"`
}

type IncidentModel struct {
	DB DBTX
}

const incidentSelect = `
	SELECT i.id, i.camera_id, i.incident_type, i.severity, i.confidence_score,
	       i.detected_at, i.status, i.resolved_by, i.notes, i.resolved_at,
	       i.video_clip_key, i.thumbnail_key,
	       c.name, c.location, c.camera_label
	FROM incidents i
	LEFT JOIN cameras c ON i.camera_id = c.id`

func scanIncident(row interface{ Scan(dest ...any) error }) (*Incident, error) {
	var i Incident
	var conf sql.NullFloat64
	err := row.Scan(
		&i.ID, &i.CameraID, &i.IncidentType, &i.Severity, &conf,
		&i.DetectedAt, &i.Status, &i.ResolvedBy, &i.Notes, &i.ResolvedAt,
		&i.VideoClipKey, &i.ThumbnailKey,
		&i.CameraName, &i.Location, &i.CameraLabel,
	)
	if err != nil {
		return nil, err
	}
	i.ConfidenceScore = conf.Float64
	return &i, nil
}

func (m IncidentModel) GetByID(ctx context.Context, id int64) (*Incident, error) {
	query := incidentSelect + ` WHERE i.id = $1`

	i, err := scanIncident(m.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return i, nil
}

func (m IncidentModel) queryList(ctx context.Context, query string, args ...any) ([]*Incident, error) {
	rows, err := m.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var incidents []*Incident
	for rows.Next() {
		i, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, i)
	}
	return incidents, rows.Err()
}

// List returns incidents newest-first with camera display fields joined.
func (m IncidentModel) List(ctx context.Context, limit, offset int) ([]*Incident, error) {
	query := incidentSelect + `
	ORDER BY i.detected_at DESC
	LIMIT $1 OFFSET $2`
	return m.queryList(ctx, query, limit, offset)
}

func (m IncidentModel) ListRecent(ctx context.Context, limit int) ([]*Incident, error) {
	query := incidentSelect + `
	ORDER BY i.detected_at DESC
	LIMIT $1`
	return m.queryList(ctx, query, limit)
}

func (m IncidentModel) ListByStatus(ctx context.Context, status string) ([]*Incident, error) {
	query := incidentSelect + `
	WHERE i.status = $1
	ORDER BY i.detected_at DESC`
	return m.queryList(ctx, query, status)
}

// Counts is computed fresh on every call, never cached.
func (m IncidentModel) Counts(ctx context.Context) (*IncidentCounts, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(CASE WHEN status = 'pending' THEN 1 END),
			COUNT(CASE WHEN status = 'resolved' THEN 1 END),
			COUNT(CASE WHEN status = 'false_positive' THEN 1 END)
		FROM incidents`

	var c IncidentCounts
	err := m.DB.QueryRowContext(ctx, query).Scan(&c.Total, &c.Pending, &c.Resolved, &c.FalsePositives)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (m IncidentModel) Insert(ctx context.Context, i *Incident) error {
	query := `
		INSERT INTO incidents
			(camera_id, incident_type, severity, confidence_score, detected_at, video_clip_key, thumbnail_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, status`

	return m.DB.QueryRowContext(ctx, query,
		i.CameraID, i.IncidentType, i.Severity, i.ConfidenceScore,
		i.DetectedAt, i.VideoClipKey, i.ThumbnailKey,
	).Scan(&i.ID, &i.Status)
}

// UpdateStatus is the only write path for incident status. The resolution
// timestamp is stamped for terminal statuses and cleared for pending. The
// WHERE guard keeps a concurrent reviewer from flipping a just-finalized
// incident; a write that matches no row reports ErrEditConflict.
func (m IncidentModel) UpdateStatus(ctx context.Context, id int64, status string, resolvedBy, notes *string) (*Incident, error) {
	query := `
		UPDATE incidents
		SET status = $1,
		    resolved_by = $2,
		    notes = $3,
		    resolved_at = CASE WHEN $1 = 'pending' THEN NULL ELSE CURRENT_TIMESTAMP END
		WHERE id = $4
		  AND (status = 'pending' OR status = $1)
		RETURNING id`

	var updatedID int64
	err := m.DB.QueryRowContext(ctx, query, status, resolvedBy, notes, id).Scan(&updatedID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEditConflict
		}
		return nil, err
	}
	return m.GetByID(ctx, updatedID)
}
