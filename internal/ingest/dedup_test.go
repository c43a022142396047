package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDedup_WithinWindow(t *testing.T) {
	d := NewDedup(16, time.Minute)

	key := BuildDedupKey(1, "bullying", time.Now())
	assert.False(t, d.IsDuplicate(key), "first sighting passes")
	assert.True(t, d.IsDuplicate(key), "repeat within window is dropped")
}

func TestDedup_KeyBucketsToSecond(t *testing.T) {
	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	a := BuildDedupKey(1, "bullying", base.Add(100*time.Millisecond))
	b := BuildDedupKey(1, "bullying", base.Add(900*time.Millisecond))
	c := BuildDedupKey(1, "bullying", base.Add(1100*time.Millisecond))

	assert.Equal(t, a, b, "sub-second jitter collapses")
	assert.NotEqual(t, a, c, "next second is a distinct event")
}

func TestDedup_DistinctCamerasAndTypes(t *testing.T) {
	d := NewDedup(16, time.Minute)
	now := time.Now()

	assert.False(t, d.IsDuplicate(BuildDedupKey(1, "bullying", now)))
	assert.False(t, d.IsDuplicate(BuildDedupKey(2, "bullying", now)))
	assert.False(t, d.IsDuplicate(BuildDedupKey(1, "weapon", now)))
}
