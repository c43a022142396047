package cameras

import (
	"context"
	"errors"
	"time"

	"github.com/schoolguard/sg-cctv/internal/data"
)

// MinActiveCameras is the smallest dashboard grid the frontend can render.
const MinActiveCameras = 4

var (
	ErrTooFewActiveCameras = errors.New("at least 4 cameras must be active")
)

type Repository interface {
	List(ctx context.Context) ([]*data.Camera, error)
	ListActive(ctx context.Context) ([]*data.Camera, error)
	GetByID(ctx context.Context, id int64) (*data.Camera, error)
	SetActive(ctx context.Context, id int64, isActive bool) (*data.Camera, error)
	SetActiveSet(ctx context.Context, ids []int64) (int, error)
}

// URLSigner provides presigned playback URLs. Video signing failures are
// fatal for the request; thumbnail failures degrade to nil. Stat confirms
// the clip object exists, since presigning alone never contacts storage.
type URLSigner interface {
	VideoURL(ctx context.Context, key string) (string, error)
	ThumbnailURL(ctx context.Context, key string) *string
	Stat(ctx context.Context, key string) error
}

// View is a camera enriched for the dashboard: short-lived playback URLs
// plus display fields computed at read time.
type View struct {
	data.Camera
	VideoURL     string  `json:"videoUrl"`
	ThumbnailURL *string `json:"thumbnailUrl"`
	StatusColor  string  `json:"statusColor"`
	LastUpdate   string  `json:"lastUpdate"`
}

// PreferenceResult echoes a preference write back to the caller.
type PreferenceResult struct {
	ActiveCameraIDs []int64 `json:"activeCameraIds"`
	ActiveCount     int     `json:"activeCount"`
}

type Service struct {
	repo   Repository
	signer URLSigner
	now    func() time.Time
}

func NewService(repo Repository, signer URLSigner) *Service {
	return &Service{repo: repo, signer: signer, now: time.Now}
}

func (s *Service) enrich(ctx context.Context, c *data.Camera) (*View, error) {
	videoURL, err := s.signer.VideoURL(ctx, c.VideoKey)
	if err != nil {
		return nil, err
	}

	color := "gray-500"
	if c.Status == "active" {
		color = "green-500"
	}

	return &View{
		Camera:       *c,
		VideoURL:     videoURL,
		ThumbnailURL: s.signer.ThumbnailURL(ctx, c.ThumbnailKey),
		StatusColor:  color,
		LastUpdate:   s.now().UTC().Format(time.RFC3339),
	}, nil
}

func (s *Service) enrichAll(ctx context.Context, cams []*data.Camera) ([]*View, error) {
	views := make([]*View, 0, len(cams))
	for _, c := range cams {
		v, err := s.enrich(ctx, c)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *Service) ListAll(ctx context.Context) ([]*View, error) {
	cams, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.enrichAll(ctx, cams)
}

func (s *Service) ListActive(ctx context.Context) ([]*View, error) {
	cams, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return s.enrichAll(ctx, cams)
}

// Get returns one enriched camera. Unlike the list paths it verifies the
// clip object actually exists before handing out a URL.
func (s *Service) Get(ctx context.Context, id int64) (*View, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.signer.Stat(ctx, c.VideoKey); err != nil {
		return nil, err
	}
	return s.enrich(ctx, c)
}

// SetActive flips a single camera's dashboard flag. The returned camera is
// the bare row, not a signed view.
func (s *Service) SetActive(ctx context.Context, id int64, isActive bool) (*data.Camera, error) {
	return s.repo.SetActive(ctx, id, isActive)
}

// UpdatePreferences replaces the active set wholesale. Fewer than
// MinActiveCameras ids is rejected before touching the database.
func (s *Service) UpdatePreferences(ctx context.Context, activeIDs []int64) (*PreferenceResult, error) {
	if len(activeIDs) < MinActiveCameras {
		return nil, ErrTooFewActiveCameras
	}

	count, err := s.repo.SetActiveSet(ctx, activeIDs)
	if err != nil {
		return nil, err
	}
	return &PreferenceResult{ActiveCameraIDs: activeIDs, ActiveCount: count}, nil
}
