package data

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// Camera is a monitored CCTV feed. Rows are seeded by cmd/seed and mutated
// only through the active-flag operations; provisioning is out-of-band.
type Camera struct {
	ID           int64     `json:"id"`
	CameraLabel  string    `json:"cameraId"`
	Name         string    `json:"name"`
	Location     string    `json:"location"`
	Status       string    `json:"status"`
	VideoKey     string    `json:"videoKey"`
	ThumbnailKey string    `json:"thumbnailKey"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

type CameraModel struct {
	DB DBTX
}

const cameraColumns = `id, camera_label, name, location, status, video_key, thumbnail_key, is_active, created_at, updated_at`

func scanCamera(row interface{ Scan(dest ...any) error }, c *Camera) error {
	return row.Scan(
		&c.ID, &c.CameraLabel, &c.Name, &c.Location, &c.Status,
		&c.VideoKey, &c.ThumbnailKey, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
}

func (m CameraModel) List(ctx context.Context) ([]*Camera, error) {
	query := `SELECT ` + cameraColumns + ` FROM cameras ORDER BY id ASC`

	rows, err := m.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cameras []*Camera
	for rows.Next() {
		var c Camera
		if err := scanCamera(rows, &c); err != nil {
			return nil, err
		}
		cameras = append(cameras, &c)
	}
	return cameras, rows.Err()
}

func (m CameraModel) ListActive(ctx context.Context) ([]*Camera, error) {
	query := `SELECT ` + cameraColumns + ` FROM cameras WHERE is_active = true ORDER BY id ASC`

	rows, err := m.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cameras []*Camera
	for rows.Next() {
		var c Camera
		if err := scanCamera(rows, &c); err != nil {
			return nil, err
		}
		cameras = append(cameras, &c)
	}
	return cameras, rows.Err()
}

func (m CameraModel) GetByID(ctx context.Context, id int64) (*Camera, error) {
	query := `SELECT ` + cameraColumns + ` FROM cameras WHERE id = $1`

	var c Camera
	err := scanCamera(m.DB.QueryRowContext(ctx, query, id), &c)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &c, nil
}

// SetActive flips one camera's active flag.
func (m CameraModel) SetActive(ctx context.Context, id int64, isActive bool) (*Camera, error) {
	query := `
		UPDATE cameras
		SET is_active = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + cameraColumns

	var c Camera
	err := scanCamera(m.DB.QueryRowContext(ctx, query, isActive, id), &c)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &c, nil
}

// SetActiveSet makes exactly the given cameras active and all others
// inactive. One statement so concurrent preference writes can't interleave
// into a mixed state.
func (m CameraModel) SetActiveSet(ctx context.Context, ids []int64) (int, error) {
	query := `
		UPDATE cameras
		SET is_active = (id = ANY($1)), updated_at = NOW()`

	if _, err := m.DB.ExecContext(ctx, query, pq.Array(ids)); err != nil {
		return 0, err
	}

	var active int
	err := m.DB.QueryRowContext(ctx, `SELECT count(*) FROM cameras WHERE is_active = true`).Scan(&active)
	return active, err
}

func (m CameraModel) Insert(ctx context.Context, c *Camera) error {
	query := `
		INSERT INTO cameras (camera_label, name, location, status, video_key, thumbnail_key, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (camera_label) DO NOTHING
		RETURNING id, created_at, updated_at`

	err := m.DB.QueryRowContext(ctx, query,
		c.CameraLabel, c.Name, c.Location, c.Status, c.VideoKey, c.ThumbnailKey, c.IsActive,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		// Already seeded.
		return nil
	}
	return err
}
