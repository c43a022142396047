package reports

import (
	"context"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolguard/sg-cctv/internal/data"
)

type mockRepo struct {
	inserted []*data.Report
}

func (m *mockRepo) List(ctx context.Context) ([]*data.Report, error) { return m.inserted, nil }
func (m *mockRepo) GetByID(ctx context.Context, id int64) (*data.Report, error) {
	for _, r := range m.inserted {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, data.ErrRecordNotFound
}
func (m *mockRepo) Insert(ctx context.Context, r *data.Report) error {
	r.ID = int64(len(m.inserted) + 1)
	r.Status = "completed"
	m.inserted = append(m.inserted, r)
	return nil
}

func fixedService(repo *mockRepo) *Service {
	svc := NewService(repo)
	svc.now = func() time.Time { return time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestGenerate_BuildsNameAndRange(t *testing.T) {
	repo := &mockRepo{}
	svc := fixedService(repo)

	r, err := svc.Generate(context.Background(), "incident", "today", "")
	require.NoError(t, err)

	assert.Equal(t, "Incident Report", r.Name)
	assert.Equal(t, "8/28/2026", r.DateRange)
	assert.Equal(t, "admin", r.GeneratedBy, "actor defaults to admin")
	assert.Equal(t, "1.2 MB", r.FileSize)
	assert.Equal(t, "completed", r.Status)
}

func TestGenerate_WeekAndMonthRanges(t *testing.T) {
	svc := fixedService(&mockRepo{})

	r, err := svc.Generate(context.Background(), "weekly", "week", "staff")
	require.NoError(t, err)
	assert.Equal(t, "8/21/2026 - 8/28/2026", r.DateRange)

	r, err = svc.Generate(context.Background(), "monthly", "month", "staff")
	require.NoError(t, err)
	assert.Equal(t, "August 2026", r.DateRange)
}

func TestGenerate_CapitalizesMultibyteType(t *testing.T) {
	svc := fixedService(&mockRepo{})

	r, err := svc.Generate(context.Background(), "überwachung", "today", "staff")
	require.NoError(t, err)
	assert.Equal(t, "Überwachung Report", r.Name)
	assert.True(t, utf8.ValidString(r.Name))
}

func TestGet_MissingReport(t *testing.T) {
	svc := fixedService(&mockRepo{})

	_, err := svc.Get(context.Background(), 42)
	assert.ErrorIs(t, err, data.ErrRecordNotFound)
}

func TestGenerate_UnknownRangeIsEmpty(t *testing.T) {
	svc := fixedService(&mockRepo{})

	r, err := svc.Generate(context.Background(), "custom", "quarter", "staff")
	require.NoError(t, err)
	assert.Equal(t, "", r.DateRange)
}

func TestGenerate_RequiresType(t *testing.T) {
	svc := fixedService(&mockRepo{})

	_, err := svc.Generate(context.Background(), "", "today", "staff")
	assert.ErrorIs(t, err, ErrMissingType)
}
