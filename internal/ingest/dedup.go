package ingest

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Dedup drops repeated detections from jittery AI publishers. Keys bucket
// the detection time to one second so micro-timing differences collapse.
type Dedup struct {
	cache *lru.Cache[string, time.Time]
	ttl   time.Duration
}

func NewDedup(maxKeys int, ttl time.Duration) *Dedup {
	c, _ := lru.New[string, time.Time](maxKeys)
	return &Dedup{cache: c, ttl: ttl}
}

func (d *Dedup) IsDuplicate(key string) bool {
	if addedAt, ok := d.cache.Get(key); ok {
		if time.Since(addedAt) < d.ttl {
			return true
		}
	}
	d.cache.Add(key, time.Now())
	return false
}

func BuildDedupKey(cameraID int64, incidentType string, detectedAt time.Time) string {
	return fmt.Sprintf("%d|%s|%d", cameraID, incidentType, detectedAt.Truncate(time.Second).Unix())
}
