package analytics

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/schoolguard/sg-cctv/internal/data"
)

var ErrInvalidTimeframe = errors.New("invalid timeframe. Use: today, weekly, or monthly")

const (
	TimeframeToday   = "today"
	TimeframeWeekly  = "weekly"
	TimeframeMonthly = "monthly"
)

// peakBandLabels is the fixed band set, in display order. Bands absent from
// the rollup query are filled with zero so the chart always has four bars.
var peakBandLabels = []string{
	"Morning (8AM-12PM)",
	"Afternoon (12PM-4PM)",
	"Evening (4PM-8PM)",
	"Night (8PM-12AM)",
}

type Repository interface {
	HourlyToday(ctx context.Context) ([]*data.HourlyBucket, error)
	Weekly(ctx context.Context) ([]*data.WeeklyRow, error)
	Monthly(ctx context.Context) ([]*data.MonthlyRow, error)
	CurrentWindow(ctx context.Context) (*data.DetectionWindow, error)
	PreviousWindow(ctx context.Context) (*data.DetectionWindow, error)
	PeakBands(ctx context.Context) ([]*data.PeakBand, error)
	LocationCounts(ctx context.Context) ([]*data.LocationCount, error)
	Upsert(ctx context.Context, b *data.RollupBucket) error
}

type IncidentRepository interface {
	Counts(ctx context.Context) (*data.IncidentCounts, error)
	ListRecent(ctx context.Context, limit int) ([]*data.Incident, error)
}

// DetectionStats is the dashboard summary card. Counts mix two windows:
// the trailing-7-day detection figures and the all-time status breakdown.
type DetectionStats struct {
	TotalDetections   int     `json:"totalDetections"`
	BullyingIncidents int     `json:"bullyingIncidents"`
	ResolvedIncidents int     `json:"resolvedIncidents"`
	PendingIncidents  int     `json:"pendingIncidents"`
	FalsePositives    int     `json:"falsePositives"`
	AccuracyRate      float64 `json:"accuracyRate"`
	AvgConfidence     float64 `json:"avgConfidence"`
	TotalChange       int     `json:"totalChange"`
	TotalTrend        string  `json:"totalTrend"`
	ResolvedChange    int     `json:"resolvedChange"`
	ResolvedTrend     string  `json:"resolvedTrend"`
}

type PeakBandView struct {
	Label     string `json:"label"`
	Incidents int    `json:"incidents"`
}

type LocationView struct {
	Location   string `json:"location"`
	Incidents  int    `json:"incidents"`
	Percentage int    `json:"percentage"`
	Trend      string `json:"trend"`
}

// BullyingStats backs the headline card. The trend compares the last 7 days
// against the 7 before, within a sample of the 100 most recent incidents.
type BullyingStats struct {
	Count            int    `json:"count"`
	Location         string `json:"location"`
	PercentageChange int    `json:"percentageChange"`
	Trend            string `json:"trend"`
	ComparisonPeriod string `json:"comparisonPeriod"`
}

type Service struct {
	repo      Repository
	incidents IncidentRepository
	now       func() time.Time
}

func NewService(repo Repository, incidents IncidentRepository) *Service {
	return &Service{repo: repo, incidents: incidents, now: time.Now}
}

// Timeframe dispatches the chart query for one of the three fixed views.
// The returned count is the row count, already unwrapped from the slice.
func (s *Service) Timeframe(ctx context.Context, timeframe string) (any, int, error) {
	switch timeframe {
	case TimeframeToday:
		rows, err := s.repo.HourlyToday(ctx)
		return rows, len(rows), err
	case TimeframeWeekly:
		rows, err := s.repo.Weekly(ctx)
		return rows, len(rows), err
	case TimeframeMonthly:
		rows, err := s.repo.Monthly(ctx)
		return rows, len(rows), err
	default:
		return nil, 0, ErrInvalidTimeframe
	}
}

func percentChange(current, previous int) int {
	if previous <= 0 {
		return 0
	}
	return int(math.Round(float64(current-previous) / float64(previous) * 100))
}

func trendOf(change int) string {
	switch {
	case change > 0:
		return "up"
	case change < 0:
		return "down"
	default:
		return "stable"
	}
}

// DetectionStats merges the windowed detection summary with the live status
// counts.
func (s *Service) DetectionStats(ctx context.Context) (*DetectionStats, error) {
	current, err := s.repo.CurrentWindow(ctx)
	if err != nil {
		return nil, err
	}
	previous, err := s.repo.PreviousWindow(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.incidents.Counts(ctx)
	if err != nil {
		return nil, err
	}

	totalChange := percentChange(current.Total, previous.Total)
	resolvedChange := percentChange(current.Resolved, previous.Resolved)

	return &DetectionStats{
		TotalDetections:   current.Total,
		BullyingIncidents: counts.Total - counts.FalsePositives,
		ResolvedIncidents: current.Resolved,
		PendingIncidents:  counts.Pending,
		FalsePositives:    current.FalsePositives,
		AccuracyRate:      current.AccuracyRate,
		AvgConfidence:     current.AvgConfidence,
		TotalChange:       totalChange,
		TotalTrend:        trendOf(totalChange),
		ResolvedChange:    resolvedChange,
		ResolvedTrend:     trendOf(resolvedChange),
	}, nil
}

// PeakHours returns all four bands keyed by their short name, zero-filled.
func (s *Service) PeakHours(ctx context.Context) (map[string]*PeakBandView, error) {
	bands, err := s.repo.PeakBands(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]*PeakBandView, len(peakBandLabels))
	for _, label := range peakBandLabels {
		out[bandKey(label)] = &PeakBandView{Label: label}
	}
	for _, b := range bands {
		out[bandKey(b.Period)] = &PeakBandView{Label: b.Period, Incidents: b.Incidents}
	}
	return out, nil
}

func bandKey(label string) string {
	return strings.ToLower(strings.SplitN(label, " ", 2)[0])
}

// Locations returns the top incident locations with their share of the
// all-time total.
func (s *Service) Locations(ctx context.Context) ([]*LocationView, error) {
	locs, err := s.repo.LocationCounts(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*LocationView, 0, len(locs))
	for _, l := range locs {
		out = append(out, &LocationView{
			Location:   l.Location,
			Incidents:  l.Incidents,
			Percentage: l.Percentage,
			Trend:      "stable",
		})
	}
	return out, nil
}

// BullyingStats computes the headline card from the 100 most recent
// incidents. The percentage change is reported as a magnitude; direction
// lives in the trend field.
func (s *Service) BullyingStats(ctx context.Context) (*BullyingStats, error) {
	recent, err := s.incidents.ListRecent(ctx, 100)
	if err != nil {
		return nil, err
	}

	now := s.now()
	weekAgo := now.AddDate(0, 0, -7)
	twoWeeksAgo := now.AddDate(0, 0, -14)

	var pending, thisWeek, lastWeek int
	for _, i := range recent {
		if i.Status == data.IncidentStatusPending {
			pending++
		}
		switch {
		case !i.DetectedAt.Before(weekAgo):
			thisWeek++
		case !i.DetectedAt.Before(twoWeeksAgo):
			lastWeek++
		}
	}

	change := 0
	if lastWeek > 0 {
		change = int(math.Abs(math.Round(float64(thisWeek-lastWeek) / float64(lastWeek) * 100)))
	}
	trend := "up"
	if thisWeek < lastWeek {
		trend = "down"
	}

	return &BullyingStats{
		Count:            pending,
		Location:         "area CCTV",
		PercentageChange: change,
		Trend:            trend,
		ComparisonPeriod: "since last week",
	}, nil
}

// Record writes one rollup bucket; the ingest pipeline calls this after
// each detection batch.
func (s *Service) Record(ctx context.Context, b *data.RollupBucket) error {
	return s.repo.Upsert(ctx, b)
}
