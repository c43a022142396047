package reports

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/schoolguard/sg-cctv/internal/data"
)

var ErrMissingType = errors.New("reportType is required")

// placeholderSize stands in until report rendering produces real files.
const placeholderSize = "1.2 MB"

type Repository interface {
	List(ctx context.Context) ([]*data.Report, error)
	GetByID(ctx context.Context, id int64) (*data.Report, error)
	Insert(ctx context.Context, r *data.Report) error
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) List(ctx context.Context) ([]*data.Report, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*data.Report, error) {
	return s.repo.GetByID(ctx, id)
}

// Generate records a report row. The name is derived from the type and the
// date range rendered as display text; unknown ranges render empty rather
// than failing.
func (s *Service) Generate(ctx context.Context, reportType, dateRange, generatedBy string) (*data.Report, error) {
	if reportType == "" {
		return nil, ErrMissingType
	}
	if generatedBy == "" {
		generatedBy = "admin"
	}

	first, size := utf8.DecodeRuneInString(reportType)
	r := &data.Report{
		Name:        string(unicode.ToUpper(first)) + reportType[size:] + " Report",
		Type:        reportType,
		DateRange:   s.rangeDisplay(dateRange),
		GeneratedBy: generatedBy,
		FileSize:    placeholderSize,
	}

	if err := s.repo.Insert(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) rangeDisplay(dateRange string) string {
	now := s.now()
	switch dateRange {
	case "today":
		return shortDate(now)
	case "week":
		return fmt.Sprintf("%s - %s", shortDate(now.AddDate(0, 0, -7)), shortDate(now))
	case "month":
		return now.Format("January 2006")
	default:
		return ""
	}
}

func shortDate(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", t.Month(), t.Day(), t.Year())
}
