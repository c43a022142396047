package data

import (
	"context"
	"database/sql"
	"time"
)

type Report struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	DateRange   string    `json:"date_range"`
	GeneratedBy string    `json:"generated_by"`
	FileSize    string    `json:"file_size"`
	Status      string    `json:"status"`
	GeneratedAt time.Time `json:"generated_at"`
}

type ReportModel struct {
	DB DBTX
}

// List returns the 50 most recent reports.
func (m ReportModel) List(ctx context.Context) ([]*Report, error) {
	query := `
		SELECT id, name, type, date_range, generated_by, file_size, status, generated_at
		FROM reports
		ORDER BY generated_at DESC
		LIMIT 50`

	rows, err := m.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*Report
	for rows.Next() {
		var r Report
		err := rows.Scan(&r.ID, &r.Name, &r.Type, &r.DateRange,
			&r.GeneratedBy, &r.FileSize, &r.Status, &r.GeneratedAt)
		if err != nil {
			return nil, err
		}
		reports = append(reports, &r)
	}
	return reports, rows.Err()
}

func (m ReportModel) GetByID(ctx context.Context, id int64) (*Report, error) {
	query := `
		SELECT id, name, type, date_range, generated_by, file_size, status, generated_at
		FROM reports
		WHERE id = $1`

	var r Report
	err := m.DB.QueryRowContext(ctx, query, id).Scan(&r.ID, &r.Name, &r.Type,
		&r.DateRange, &r.GeneratedBy, &r.FileSize, &r.Status, &r.GeneratedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (m ReportModel) Insert(ctx context.Context, r *Report) error {
	query := `
		INSERT INTO reports (name, type, date_range, generated_by, file_size, status)
		VALUES ($1, $2, $3, $4, $5, 'completed')
		RETURNING id, status, generated_at`

	return m.DB.QueryRowContext(ctx, query,
		r.Name, r.Type, r.DateRange, r.GeneratedBy, r.FileSize,
	).Scan(&r.ID, &r.Status, &r.GeneratedAt)
}
