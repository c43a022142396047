package incidents

import (
	"context"
	"errors"
	"fmt"

	"github.com/schoolguard/sg-cctv/internal/data"
)

var (
	ErrInvalidStatus = errors.New("invalid status. Must be one of: pending, resolved, false_positive")
	// ErrAlreadyFinalized rejects writes to incidents in a terminal state.
	// Resolved and false_positive are final; review outcomes don't flip.
	ErrAlreadyFinalized = errors.New("incident already finalized")
)

const (
	DefaultListLimit   = 100
	DefaultRecentLimit = 10
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*data.Incident, error)
	List(ctx context.Context, limit, offset int) ([]*data.Incident, error)
	ListRecent(ctx context.Context, limit int) ([]*data.Incident, error)
	ListByStatus(ctx context.Context, status string) ([]*data.Incident, error)
	Counts(ctx context.Context) (*data.IncidentCounts, error)
	Insert(ctx context.Context, i *data.Incident) error
	UpdateStatus(ctx context.Context, id int64, status string, resolvedBy, notes *string) (*data.Incident, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func validStatus(status string) bool {
	switch status {
	case data.IncidentStatusPending, data.IncidentStatusResolved, data.IncidentStatusFalsePositive:
		return true
	}
	return false
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*data.Incident, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListRecent(ctx context.Context, limit int) ([]*data.Incident, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return s.repo.ListRecent(ctx, limit)
}

func (s *Service) ListByStatus(ctx context.Context, status string) ([]*data.Incident, error) {
	if !validStatus(status) {
		return nil, ErrInvalidStatus
	}
	return s.repo.ListByStatus(ctx, status)
}

func (s *Service) Get(ctx context.Context, id int64) (*data.Incident, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Counts(ctx context.Context) (*data.IncidentCounts, error) {
	return s.repo.Counts(ctx)
}

// Create records a new detection. Severity and type are required; a zero
// confidence score is allowed (some detectors don't report one).
func (s *Service) Create(ctx context.Context, i *data.Incident) error {
	if i.IncidentType == "" {
		return fmt.Errorf("incident_type is required")
	}
	if i.Severity == "" {
		i.Severity = "warning"
	}
	return s.repo.Insert(ctx, i)
}

// UpdateStatus moves an incident through review. Terminal incidents are
// immutable; repeating the same terminal status is a no-op.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string, resolvedBy, notes *string) (*data.Incident, error) {
	if !validStatus(status) {
		return nil, ErrInvalidStatus
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != data.IncidentStatusPending {
		if current.Status == status {
			// Retried request; keep the original resolution metadata.
			return current, nil
		}
		return nil, ErrAlreadyFinalized
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status, resolvedBy, notes)
	if err != nil {
		// A concurrent reviewer finalized between the read and the write.
		if errors.Is(err, data.ErrEditConflict) {
			return nil, ErrAlreadyFinalized
		}
		return nil, err
	}
	return updated, nil
}
