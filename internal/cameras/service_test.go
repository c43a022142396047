package cameras_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolguard/sg-cctv/internal/cameras"
	"github.com/schoolguard/sg-cctv/internal/data"
	"github.com/schoolguard/sg-cctv/internal/storage"
)

type mockRepo struct {
	cameras   []*data.Camera
	activeSet []int64
}

func (m *mockRepo) List(ctx context.Context) ([]*data.Camera, error) { return m.cameras, nil }
func (m *mockRepo) ListActive(ctx context.Context) ([]*data.Camera, error) {
	var out []*data.Camera
	for _, c := range m.cameras {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}
func (m *mockRepo) GetByID(ctx context.Context, id int64) (*data.Camera, error) {
	for _, c := range m.cameras {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, data.ErrRecordNotFound
}
func (m *mockRepo) SetActive(ctx context.Context, id int64, isActive bool) (*data.Camera, error) {
	c, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.IsActive = isActive
	return c, nil
}
func (m *mockRepo) SetActiveSet(ctx context.Context, ids []int64) (int, error) {
	m.activeSet = ids
	return len(ids), nil
}

type mockSigner struct {
	failVideo bool
	missing   bool
}

func (m *mockSigner) VideoURL(ctx context.Context, key string) (string, error) {
	if m.failVideo {
		return "", errors.New("sign failed")
	}
	return "https://signed.example/" + key, nil
}
func (m *mockSigner) ThumbnailURL(ctx context.Context, key string) *string {
	if key == "" {
		return nil
	}
	url := "https://signed.example/" + key
	return &url
}
func (m *mockSigner) Stat(ctx context.Context, key string) error {
	if m.missing || key == "" {
		return storage.ErrObjectNotFound
	}
	return nil
}

func testCameras() []*data.Camera {
	return []*data.Camera{
		{ID: 1, CameraLabel: "CCTV-01", Status: "active", VideoKey: "videos/a.mp4", ThumbnailKey: "thumbnails/a.jpg", IsActive: true},
		{ID: 2, CameraLabel: "CCTV-02", Status: "offline", VideoKey: "videos/b.mp4", IsActive: false},
	}
}

func TestListAll_EnrichesViews(t *testing.T) {
	svc := cameras.NewService(&mockRepo{cameras: testCameras()}, &mockSigner{})

	views, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, "https://signed.example/videos/a.mp4", views[0].VideoURL)
	assert.NotNil(t, views[0].ThumbnailURL)
	assert.Equal(t, "green-500", views[0].StatusColor)
	assert.NotEmpty(t, views[0].LastUpdate)

	// Missing thumbnail key degrades to nil, offline camera is gray
	assert.Nil(t, views[1].ThumbnailURL)
	assert.Equal(t, "gray-500", views[1].StatusColor)
}

func TestListAll_VideoSignFailureIsFatal(t *testing.T) {
	svc := cameras.NewService(&mockRepo{cameras: testCameras()}, &mockSigner{failVideo: true})

	_, err := svc.ListAll(context.Background())
	assert.Error(t, err)
}

func TestListActive_FiltersInactive(t *testing.T) {
	svc := cameras.NewService(&mockRepo{cameras: testCameras()}, &mockSigner{})

	views, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "CCTV-01", views[0].CameraLabel)
}

func TestGet_NotFound(t *testing.T) {
	svc := cameras.NewService(&mockRepo{cameras: testCameras()}, &mockSigner{})

	_, err := svc.Get(context.Background(), 99)
	assert.ErrorIs(t, err, data.ErrRecordNotFound)
}

func TestGet_MissingClipObject(t *testing.T) {
	svc := cameras.NewService(&mockRepo{cameras: testCameras()}, &mockSigner{missing: true})

	_, err := svc.Get(context.Background(), 1)
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}

func TestUpdatePreferences_MinimumEnforced(t *testing.T) {
	repo := &mockRepo{cameras: testCameras()}
	svc := cameras.NewService(repo, &mockSigner{})

	_, err := svc.UpdatePreferences(context.Background(), []int64{1, 2, 3})
	assert.ErrorIs(t, err, cameras.ErrTooFewActiveCameras)
	assert.Nil(t, repo.activeSet, "repo must not be touched on validation failure")

	result, err := svc.UpdatePreferences(context.Background(), []int64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, 4, result.ActiveCount)
	assert.Equal(t, []int64{1, 2, 3, 4}, result.ActiveCameraIDs)
}
