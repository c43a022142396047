package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolguard/sg-cctv/internal/alerts"
	"github.com/schoolguard/sg-cctv/internal/analytics"
	"github.com/schoolguard/sg-cctv/internal/api"
	"github.com/schoolguard/sg-cctv/internal/cameras"
	"github.com/schoolguard/sg-cctv/internal/config"
	"github.com/schoolguard/sg-cctv/internal/data"
	"github.com/schoolguard/sg-cctv/internal/incidents"
	"github.com/schoolguard/sg-cctv/internal/reports"
)

// Camera mocks

type camRepo struct{}

func (camRepo) List(ctx context.Context) ([]*data.Camera, error) {
	return []*data.Camera{
		{ID: 1, CameraLabel: "CCTV-01", Status: "active", VideoKey: "videos/a.mp4", ThumbnailKey: "thumbnails/a.jpg", IsActive: true},
	}, nil
}
func (m camRepo) ListActive(ctx context.Context) ([]*data.Camera, error) { return m.List(ctx) }
func (camRepo) GetByID(ctx context.Context, id int64) (*data.Camera, error) {
	if id != 1 {
		return nil, data.ErrRecordNotFound
	}
	return &data.Camera{ID: 1, CameraLabel: "CCTV-01", Status: "active", VideoKey: "videos/a.mp4"}, nil
}
func (camRepo) SetActive(ctx context.Context, id int64, isActive bool) (*data.Camera, error) {
	if id != 1 {
		return nil, data.ErrRecordNotFound
	}
	return &data.Camera{ID: 1, IsActive: isActive}, nil
}
func (camRepo) SetActiveSet(ctx context.Context, ids []int64) (int, error) { return len(ids), nil }

type camSigner struct{}

func (camSigner) VideoURL(ctx context.Context, key string) (string, error) {
	return "https://signed.example/" + key, nil
}
func (camSigner) ThumbnailURL(ctx context.Context, key string) *string {
	if key == "" {
		return nil
	}
	url := "https://signed.example/" + key
	return &url
}
func (camSigner) Stat(ctx context.Context, key string) error { return nil }

// Incident mocks

type incRepo struct{}

func (incRepo) GetByID(ctx context.Context, id int64) (*data.Incident, error) {
	if id != 1 {
		return nil, data.ErrRecordNotFound
	}
	return &data.Incident{ID: 1, IncidentType: "bullying", Status: data.IncidentStatusPending, DetectedAt: time.Now()}, nil
}
func (incRepo) List(ctx context.Context, limit, offset int) ([]*data.Incident, error) {
	return []*data.Incident{{ID: 1, Status: data.IncidentStatusPending}}, nil
}
func (incRepo) ListRecent(ctx context.Context, limit int) ([]*data.Incident, error) {
	return nil, nil
}
func (incRepo) ListByStatus(ctx context.Context, status string) ([]*data.Incident, error) {
	return nil, nil
}
func (incRepo) Counts(ctx context.Context) (*data.IncidentCounts, error) {
	return &data.IncidentCounts{Total: 10, Pending: 4, Resolved: 5, FalsePositives: 1}, nil
}
func (incRepo) Insert(ctx context.Context, i *data.Incident) error { return nil }
func (incRepo) UpdateStatus(ctx context.Context, id int64, status string, resolvedBy, notes *string) (*data.Incident, error) {
	return &data.Incident{ID: id, Status: status}, nil
}

// Alert mocks

type alertRepo struct{}

func (alertRepo) ListActive(ctx context.Context) ([]*data.Alert, error) {
	return []*data.Alert{{ID: 1, AlertType: data.AlertTypeCritical, Message: "Bullying detected", CreatedAt: time.Now()}}, nil
}
func (alertRepo) ListAll(ctx context.Context) ([]*data.Alert, error) { return nil, nil }
func (alertRepo) GetByID(ctx context.Context, id int64) (*data.Alert, error) {
	return nil, data.ErrRecordNotFound
}
func (alertRepo) Insert(ctx context.Context, a *data.Alert) error {
	a.ID = 9
	a.CreatedAt = time.Now()
	return nil
}
func (alertRepo) Dismiss(ctx context.Context, id int64, by string) (*data.Alert, error) {
	if id != 5 {
		return nil, data.ErrRecordNotFound
	}
	return &data.Alert{ID: 5, Dismissed: true, DismissedBy: &by}, nil
}
func (alertRepo) DismissMany(ctx context.Context, ids []int64, by string) (int64, error) {
	return int64(len(ids)), nil
}

// Analytics mocks

type anaRepo struct{}

func (anaRepo) HourlyToday(ctx context.Context) ([]*data.HourlyBucket, error) {
	return make([]*data.HourlyBucket, 24), nil
}
func (anaRepo) Weekly(ctx context.Context) ([]*data.WeeklyRow, error)   { return nil, nil }
func (anaRepo) Monthly(ctx context.Context) ([]*data.MonthlyRow, error) { return nil, nil }
func (anaRepo) CurrentWindow(ctx context.Context) (*data.DetectionWindow, error) {
	return &data.DetectionWindow{Total: 5}, nil
}
func (anaRepo) PreviousWindow(ctx context.Context) (*data.DetectionWindow, error) {
	return &data.DetectionWindow{}, nil
}
func (anaRepo) PeakBands(ctx context.Context) ([]*data.PeakBand, error)           { return nil, nil }
func (anaRepo) LocationCounts(ctx context.Context) ([]*data.LocationCount, error) { return nil, nil }
func (anaRepo) Upsert(ctx context.Context, b *data.RollupBucket) error            { return nil }

// Report mocks

type repRepo struct{}

func (repRepo) List(ctx context.Context) ([]*data.Report, error) { return nil, nil }
func (repRepo) GetByID(ctx context.Context, id int64) (*data.Report, error) {
	if id != 1 {
		return nil, data.ErrRecordNotFound
	}
	return &data.Report{ID: 1, Name: "Incident Report", Status: "completed"}, nil
}
func (repRepo) Insert(ctx context.Context, r *data.Report) error {
	r.ID = 1
	r.Status = "completed"
	return nil
}

func testRouter(t *testing.T) chi.Router {
	t.Helper()

	return api.NewRouter(api.RouterConfig{
		Cameras:   api.NewCameraHandler(cameras.NewService(camRepo{}, camSigner{}), true),
		Incidents: api.NewIncidentHandler(incidents.NewService(incRepo{}), true),
		Alerts:    api.NewAlertHandler(alerts.NewService(alertRepo{}, nil), true),
		Analytics: api.NewAnalyticsHandler(analytics.NewService(anaRepo{}, incRepo{}), true),
		Reports:   api.NewReportHandler(reports.NewService(repRepo{}), true),
		Health:    api.NewHealthHandler("development"),
		Origins:   config.NewOriginSet([]string{"http://localhost:3000"}),
	})
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Buffer
	if body == "" {
		reader = bytes.NewBuffer(nil)
	} else {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	return rec, decoded
}

func TestHealthEndpoint(t *testing.T) {
	rec, body := doJSON(t, testRouter(t), "GET", "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "CCTV Backend API is running", body["message"])
	assert.Equal(t, "development", body["environment"])
}

func TestListCameras_SignedEnvelope(t *testing.T) {
	rec, body := doJSON(t, testRouter(t), "GET", "/api/cameras", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["count"])

	list := body["data"].([]any)
	cam := list[0].(map[string]any)
	assert.Equal(t, "https://signed.example/videos/a.mp4", cam["videoUrl"])
	assert.Equal(t, "green-500", cam["statusColor"])
	assert.Equal(t, "CCTV-01", cam["cameraId"])
}

func TestGetCamera_NotFound(t *testing.T) {
	router := testRouter(t)

	rec, body := doJSON(t, router, "GET", "/api/cameras/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Camera not found", body["message"])

	// Non-numeric ids behave like missing rows
	rec, _ = doJSON(t, router, "GET", "/api/cameras/abc", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPreferences_MinimumRejected(t *testing.T) {
	rec, body := doJSON(t, testRouter(t), "POST", "/api/cameras/preferences", `{"activeCameraIds":[1,2,3]}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "At least 4 cameras must be active", body["message"])
}

func TestPreferences_Accepted(t *testing.T) {
	rec, body := doJSON(t, testRouter(t), "POST", "/api/cameras/preferences", `{"activeCameraIds":[1,2,3,4]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Camera preferences updated", body["message"])
	result := body["data"].(map[string]any)
	assert.Equal(t, float64(4), result["activeCount"])
}

func TestUpdateIncidentStatus_Validation(t *testing.T) {
	rec, body := doJSON(t, testRouter(t), "PATCH", "/api/incidents/1/status", `{"status":"escalated"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid status. Must be one of: pending, resolved, false_positive", body["message"])
}

func TestUpdateIncidentStatus_Success(t *testing.T) {
	rec, body := doJSON(t, testRouter(t), "PATCH", "/api/incidents/1/status", `{"status":"resolved","resolvedBy":"admin"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Incident marked as resolved", body["message"])
}

func TestIncidentCounts(t *testing.T) {
	rec, body := doJSON(t, testRouter(t), "GET", "/api/incidents/stats/counts", "")

	require.Equal(t, http.StatusOK, rec.Code)
	counts := body["data"].(map[string]any)
	assert.Equal(t, float64(10), counts["total"])
	assert.Equal(t, float64(4), counts["pending"])
}

func TestCreateAlert_InvalidType(t *testing.T) {
	rec, body := doJSON(t, testRouter(t), "POST", "/api/alerts", `{"alert_type":"info","message":"x"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "alert_type must be critical or warning", body["message"])
}

func TestCreateAlert_Created(t *testing.T) {
	rec, body := doJSON(t, testRouter(t), "POST", "/api/alerts", `{"alert_type":"critical","message":"Bullying detected","camera_id":1}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Alert created successfully", body["message"])
}

func TestDismissAlert(t *testing.T) {
	router := testRouter(t)

	rec, body := doJSON(t, router, "POST", "/api/alerts/5/dismiss", `{"dismissedBy":"admin"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alert dismissed successfully", body["message"])

	rec, _ = doJSON(t, router, "POST", "/api/alerts/99/dismiss", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalyticsTimeframe(t *testing.T) {
	router := testRouter(t)

	rec, body := doJSON(t, router, "GET", "/api/analytics?timeframe=today", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "today", body["timeframe"])
	assert.Equal(t, float64(24), body["count"])

	rec, body = doJSON(t, router, "GET", "/api/analytics?timeframe=yearly", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid timeframe. Use: today, weekly, or monthly", body["message"])
}

func TestGenerateReport(t *testing.T) {
	rec, body := doJSON(t, testRouter(t), "POST", "/api/reports/generate", `{"reportType":"incident","dateRange":"today"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Report generated successfully", body["message"])
	report := body["data"].(map[string]any)
	assert.Equal(t, "Incident Report", report["name"])
}

func TestEmptyListsRenderAsArrays(t *testing.T) {
	router := testRouter(t)

	for _, path := range []string{"/api/alerts/all", "/api/incidents/recent", "/api/reports"} {
		rec, body := doJSON(t, router, "GET", path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, []any{}, body["data"], "%s must render [] when empty", path)
		assert.Equal(t, float64(0), body["count"], path)
	}

	rec, body := doJSON(t, router, "GET", "/api/analytics?timeframe=weekly", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, body["data"])
}

func TestDownloadReport(t *testing.T) {
	router := testRouter(t)

	rec, body := doJSON(t, router, "GET", "/api/reports/1/download", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Download functionality to be implemented", body["message"])

	rec, body = doJSON(t, router, "GET", "/api/reports/99/download", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Report not found", body["message"])
}

func TestNotFoundFallback(t *testing.T) {
	rec, body := doJSON(t, testRouter(t), "GET", "/api/nope", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", body["message"])
	assert.Equal(t, "/api/nope", body["path"])
}

func TestCORS_AllowListEnforced(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest("OPTIONS", "/api/cameras", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "/api/cameras", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	// No Origin header: server-to-server traffic is always allowed
	req = httptest.NewRequest("GET", "/health", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
