package data

import (
	"context"
	"database/sql"
	"time"
)

// RollupBucket is one pre-aggregated (date, camera, hour) analytics row.
// The write path is an upsert: re-ingesting a bucket overwrites it.
type RollupBucket struct {
	ID             int64     `json:"id"`
	Date           time.Time `json:"date"`
	CameraID       int64     `json:"camera_id"`
	Hour           int       `json:"hour"`
	TotalIncidents int       `json:"total_incidents"`
	Resolved       int       `json:"resolved_incidents"`
	Pending        int       `json:"pending_incidents"`
	FalsePositives int       `json:"false_positives"`
	AvgConfidence  float64   `json:"avg_confidence"`
}

// HourlyBucket is one of the 24 fixed slots of the current date. Hours with
// no rollup rows report zeros so callers can index by hour unconditionally.
type HourlyBucket struct {
	Hour      string `json:"hour"`
	Incidents int    `json:"incidents"`
	Resolved  int    `json:"resolved"`
	Pending   int    `json:"pending"`
}

type WeeklyRow struct {
	Day            string    `json:"day"`
	Date           time.Time `json:"date"`
	Incidents      int       `json:"incidents"`
	Resolved       int       `json:"resolved"`
	Pending        int       `json:"pending"`
	FalsePositives int       `json:"falsePositives"`
}

type MonthlyRow struct {
	Week           string `json:"week"`
	DateRange      string `json:"dateRange"`
	Incidents      int    `json:"incidents"`
	Resolved       int    `json:"resolved"`
	Pending        int    `json:"pending"`
	FalsePositives int    `json:"falsePositives"`
}

// DetectionWindow summarizes incidents in a trailing window. AccuracyRate
// and AvgConfidence come back 0 (not NULL/NaN) on an empty window.
type DetectionWindow struct {
	Total          int
	Resolved       int
	FalsePositives int
	AvgConfidence  float64
	AccuracyRate   float64
}

type PeakBand struct {
	Period    string `json:"label"`
	Incidents int    `json:"incidents"`
}

type LocationCount struct {
	Location   string `json:"location"`
	Incidents  int    `json:"incidents"`
	Percentage int    `json:"percentage"`
}

type AnalyticsModel struct {
	DB DBTX
}

// HourlyToday zero-fills against generate_series so all 24 buckets come
// back even when the analytics table has no rows for the current date.
func (m AnalyticsModel) HourlyToday(ctx context.Context) ([]*HourlyBucket, error) {
	query := `
		SELECT
			TO_CHAR(CURRENT_DATE + (h.hour || ' hours')::interval, 'HH24:MI') as hour,
			COALESCE(SUM(a.total_incidents), 0)::integer as incidents,
			COALESCE(SUM(a.resolved_incidents), 0)::integer as resolved,
			COALESCE(SUM(a.pending_incidents), 0)::integer as pending
		FROM generate_series(0, 23) as h(hour)
		LEFT JOIN analytics a ON a.hour = h.hour AND a.date = CURRENT_DATE
		GROUP BY h.hour
		ORDER BY h.hour`

	rows, err := m.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buckets []*HourlyBucket
	for rows.Next() {
		var b HourlyBucket
		if err := rows.Scan(&b.Hour, &b.Incidents, &b.Resolved, &b.Pending); err != nil {
			return nil, err
		}
		buckets = append(buckets, &b)
	}
	return buckets, rows.Err()
}

// Weekly returns one row per calendar date with data over the trailing
// 7 days. Dates without rollup rows are omitted, unlike the hourly view.
func (m AnalyticsModel) Weekly(ctx context.Context) ([]*WeeklyRow, error) {
	query := `
		SELECT
			TO_CHAR(date, 'Dy') as day,
			date,
			SUM(total_incidents)::integer as incidents,
			SUM(resolved_incidents)::integer as resolved,
			SUM(pending_incidents)::integer as pending,
			SUM(false_positives)::integer as false_positives
		FROM analytics
		WHERE date >= CURRENT_DATE - INTERVAL '7 days'
		GROUP BY date
		ORDER BY date ASC`

	rows, err := m.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*WeeklyRow
	for rows.Next() {
		var r WeeklyRow
		if err := rows.Scan(&r.Day, &r.Date, &r.Incidents, &r.Resolved, &r.Pending, &r.FalsePositives); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// Monthly groups the trailing 30 days by ISO week number.
func (m AnalyticsModel) Monthly(ctx context.Context) ([]*MonthlyRow, error) {
	query := `
		SELECT
			'Week ' || EXTRACT(WEEK FROM date)::text as week,
			MIN(date)::text || ' - ' || MAX(date)::text as date_range,
			SUM(total_incidents)::integer as incidents,
			SUM(resolved_incidents)::integer as resolved,
			SUM(pending_incidents)::integer as pending,
			SUM(false_positives)::integer as false_positives
		FROM analytics
		WHERE date >= CURRENT_DATE - INTERVAL '30 days'
		GROUP BY EXTRACT(WEEK FROM date)
		ORDER BY EXTRACT(WEEK FROM date) ASC`

	rows, err := m.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*MonthlyRow
	for rows.Next() {
		var r MonthlyRow
		if err := rows.Scan(&r.Week, &r.DateRange, &r.Incidents, &r.Resolved, &r.Pending, &r.FalsePositives); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// CurrentWindow covers [now-7d, now]. NULLIF guards the empty-table case;
// NULL aggregates are coalesced to zero at scan time.
func (m AnalyticsModel) CurrentWindow(ctx context.Context) (*DetectionWindow, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(CASE WHEN status = 'resolved' THEN 1 END),
			COUNT(CASE WHEN status = 'false_positive' THEN 1 END),
			ROUND(AVG(confidence_score), 2),
			ROUND(
				(COUNT(CASE WHEN status != 'false_positive' THEN 1 END)::DECIMAL /
				 NULLIF(COUNT(*), 0) * 100), 2
			)
		FROM incidents
		WHERE detected_at >= CURRENT_DATE - INTERVAL '7 days'`

	var w DetectionWindow
	var avgConf, accuracy sql.NullFloat64
	err := m.DB.QueryRowContext(ctx, query).Scan(&w.Total, &w.Resolved, &w.FalsePositives, &avgConf, &accuracy)
	if err != nil {
		return nil, err
	}
	w.AvgConfidence = avgConf.Float64
	w.AccuracyRate = accuracy.Float64
	return &w, nil
}

// PreviousWindow covers [now-14d, now-7d).
func (m AnalyticsModel) PreviousWindow(ctx context.Context) (*DetectionWindow, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(CASE WHEN status = 'resolved' THEN 1 END)
		FROM incidents
		WHERE detected_at >= CURRENT_DATE - INTERVAL '14 days'
		  AND detected_at < CURRENT_DATE - INTERVAL '7 days'`

	var w DetectionWindow
	if err := m.DB.QueryRowContext(ctx, query).Scan(&w.Total, &w.Resolved); err != nil {
		return nil, err
	}
	return &w, nil
}

// PeakBands sums rollup incidents per hour band over the trailing 7 days.
// Empty bands are absent from the result; the service zero-fills them.
func (m AnalyticsModel) PeakBands(ctx context.Context) ([]*PeakBand, error) {
	query := `
		SELECT
			CASE
				WHEN a.hour BETWEEN 8 AND 11 THEN 'Morning (8AM-12PM)'
				WHEN a.hour BETWEEN 12 AND 15 THEN 'Afternoon (12PM-4PM)'
				WHEN a.hour BETWEEN 16 AND 19 THEN 'Evening (4PM-8PM)'
				ELSE 'Night (8PM-12AM)'
			END as period,
			SUM(a.total_incidents)::integer as incidents
		FROM analytics a
		WHERE a.date >= CURRENT_DATE - INTERVAL '7 days'
		GROUP BY 1
		ORDER BY
			MIN(CASE
				WHEN a.hour BETWEEN 8 AND 11 THEN 1
				WHEN a.hour BETWEEN 12 AND 15 THEN 2
				WHEN a.hour BETWEEN 16 AND 19 THEN 3
				ELSE 4
			END)`

	rows, err := m.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bands []*PeakBand
	for rows.Next() {
		var b PeakBand
		if err := rows.Scan(&b.Period, &b.Incidents); err != nil {
			return nil, err
		}
		bands = append(bands, &b)
	}
	return bands, rows.Err()
}

// LocationCounts ranks camera locations by incident count, top 5, with each
// location's share of the all-time incident total. Zero-incident locations
// are excluded.
func (m AnalyticsModel) LocationCounts(ctx context.Context) ([]*LocationCount, error) {
	query := `
		SELECT
			c.location,
			COUNT(i.id),
			ROUND((COUNT(i.id)::DECIMAL /
				NULLIF((SELECT COUNT(*) FROM incidents), 0) * 100), 0)
		FROM cameras c
		LEFT JOIN incidents i ON c.id = i.camera_id
		GROUP BY c.location
		HAVING COUNT(i.id) > 0
		ORDER BY COUNT(i.id) DESC
		LIMIT 5`

	rows, err := m.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*LocationCount
	for rows.Next() {
		var l LocationCount
		var pct sql.NullFloat64
		if err := rows.Scan(&l.Location, &l.Incidents, &pct); err != nil {
			return nil, err
		}
		l.Percentage = int(pct.Float64)
		out = append(out, &l)
	}
	return out, rows.Err()
}

// Upsert writes one rollup bucket, overwriting on (date, camera_id, hour).
func (m AnalyticsModel) Upsert(ctx context.Context, b *RollupBucket) error {
	query := `
		INSERT INTO analytics
			(date, camera_id, hour, total_incidents, resolved_incidents, pending_incidents, false_positives, avg_confidence)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (date, camera_id, hour)
		DO UPDATE SET
			total_incidents = EXCLUDED.total_incidents,
			resolved_incidents = EXCLUDED.resolved_incidents,
			pending_incidents = EXCLUDED.pending_incidents,
			false_positives = EXCLUDED.false_positives,
			avg_confidence = EXCLUDED.avg_confidence
		RETURNING id`

	return m.DB.QueryRowContext(ctx, query,
		b.Date, b.CameraID, b.Hour, b.TotalIncidents, b.Resolved,
		b.Pending, b.FalsePositives, b.AvgConfidence,
	).Scan(&b.ID)
}

// AddToBucket increments a bucket in place, creating it when absent. Used
// by the ingest path where each detection contributes one incident.
func (m AnalyticsModel) AddToBucket(ctx context.Context, date time.Time, cameraID int64, hour int, confidence float64) error {
	query := `
		INSERT INTO analytics
			(date, camera_id, hour, total_incidents, pending_incidents, avg_confidence)
		VALUES ($1, $2, $3, 1, 1, $4)
		ON CONFLICT (date, camera_id, hour)
		DO UPDATE SET
			total_incidents = analytics.total_incidents + 1,
			pending_incidents = analytics.pending_incidents + 1,
			avg_confidence = ROUND(
				(analytics.avg_confidence * analytics.total_incidents + EXCLUDED.avg_confidence)
				/ (analytics.total_incidents + 1), 2)`

	_, err := m.DB.ExecContext(ctx, query, date, cameraID, hour, confidence)
	return err
}
