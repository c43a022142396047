package alerts

import (
	"context"
	"errors"

	"github.com/schoolguard/sg-cctv/internal/data"
)

var (
	ErrInvalidAlertType = errors.New("alert_type must be critical or warning")
	ErrEmptyMessage     = errors.New("message is required")
	ErrNoIDs            = errors.New("ids must be a non-empty array")
)

type Repository interface {
	ListActive(ctx context.Context) ([]*data.Alert, error)
	ListAll(ctx context.Context) ([]*data.Alert, error)
	GetByID(ctx context.Context, id int64) (*data.Alert, error)
	Insert(ctx context.Context, a *data.Alert) error
	Dismiss(ctx context.Context, id int64, dismissedBy string) (*data.Alert, error)
	DismissMany(ctx context.Context, ids []int64, dismissedBy string) (int64, error)
}

// Notifier receives every newly created alert. The live hub implements it;
// a nil-safe no-op is used when streaming is disabled.
type Notifier interface {
	Publish(a *data.Alert)
}

// DashboardAlert is the shape the alert ticker renders: styling hints are
// computed server-side so all clients color alerts identically.
type DashboardAlert struct {
	ID          int64   `json:"id"`
	CCTVID      *int64  `json:"cctvId"`
	CCTVName    *string `json:"cctvName"`
	Message     string  `json:"message"`
	Time        string  `json:"time"`
	Type        string  `json:"type"`
	Status      string  `json:"status"`
	Severity    *string `json:"severity"`
	BorderColor string  `json:"borderColor"`
	BgColor     string  `json:"bgColor"`
	IncidentID  *int64  `json:"incidentId"`
	Dismissed   bool    `json:"dismissed"`
}

type Service struct {
	repo     Repository
	notifier Notifier
}

func NewService(repo Repository, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

func formatAlert(a *data.Alert) *DashboardAlert {
	status, color := "WARNING", "yellow-500"
	if a.AlertType == data.AlertTypeCritical {
		status, color = "CRITICAL", "red-500"
	}
	return &DashboardAlert{
		ID:          a.ID,
		CCTVID:      a.CameraID,
		CCTVName:    a.CameraName,
		Message:     a.Message,
		Time:        a.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
		Type:        a.AlertType,
		Status:      status,
		Severity:    a.Severity,
		BorderColor: color,
		BgColor:     color,
		IncidentID:  a.IncidentID,
		Dismissed:   a.Dismissed,
	}
}

// ListActive returns undismissed alerts formatted for the ticker.
func (s *Service) ListActive(ctx context.Context) ([]*DashboardAlert, error) {
	alerts, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*DashboardAlert, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, formatAlert(a))
	}
	return out, nil
}

// ListAll includes dismissed alerts, unformatted, for the history view.
func (s *Service) ListAll(ctx context.Context) ([]*data.Alert, error) {
	return s.repo.ListAll(ctx)
}

// Create validates and stores an alert, then fans it out to live clients.
// Publish failures never affect the write.
func (s *Service) Create(ctx context.Context, a *data.Alert) error {
	if a.AlertType != data.AlertTypeCritical && a.AlertType != data.AlertTypeWarning {
		return ErrInvalidAlertType
	}
	if a.Message == "" {
		return ErrEmptyMessage
	}

	if err := s.repo.Insert(ctx, a); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.Publish(a)
	}
	return nil
}

func (s *Service) Dismiss(ctx context.Context, id int64, dismissedBy string) (*data.Alert, error) {
	if dismissedBy == "" {
		dismissedBy = "user"
	}
	return s.repo.Dismiss(ctx, id, dismissedBy)
}

func (s *Service) DismissMany(ctx context.Context, ids []int64, dismissedBy string) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrNoIDs
	}
	if dismissedBy == "" {
		dismissedBy = "user"
	}
	return s.repo.DismissMany(ctx, ids, dismissedBy)
}
