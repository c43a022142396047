package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrRedisUnavailable = errors.New("redis unavailable")

type Decision struct {
	Limit      int
	Remaining  int
	Reset      time.Time
	RetryAfter int
	Allowed    bool
}

type LimitConfig struct {
	Rate   int           `yaml:"rate"`
	Window time.Duration `yaml:"window"`
}

// ConfigFor sizes a fixed window from a steady per-second rate and a burst
// allowance. When burst exceeds the rate the window stretches so a client
// can spend the whole burst at once while the long-run average stays at
// rps.
func ConfigFor(rps, burst int) LimitConfig {
	if rps <= 0 {
		rps = 1
	}
	if burst <= rps {
		return LimitConfig{Rate: rps, Window: time.Second}
	}
	return LimitConfig{Rate: burst, Window: time.Duration(burst/rps) * time.Second}
}

// Limiter counts requests per key in Redis. Windows are fixed, anchored at
// the first request, and expire atomically with the counter.
type Limiter struct {
	client *redis.Client
	salt   string
}

func NewLimiter(client *redis.Client, salt string) *Limiter {
	if salt == "" {
		salt = "default-salt-change-me"
	}
	return &Limiter{client: client, salt: salt}
}

// HashIP produces a privacy-safe stable hash of the client IP for keying.
func (l *Limiter) HashIP(ip string) string {
	hash := sha256.Sum256([]byte(ip + l.salt))
	return hex.EncodeToString(hash[:])
}

var incrScript = redis.NewScript(`
	local current = redis.call("INCR", KEYS[1])
	if tonumber(current) == 1 then
		redis.call("PEXPIRE", KEYS[1], ARGV[1])
	end
	return current
`)

// Check increments the counter for key and reports whether the request is
// within the window's budget. Redis failures surface as ErrRedisUnavailable
// so the middleware can decide between fail-open and fail-closed.
func (l *Limiter) Check(ctx context.Context, key string, config LimitConfig) (*Decision, error) {
	count, err := incrScript.Run(ctx, l.client, []string{key}, config.Window.Milliseconds()).Int()
	if err != nil {
		return nil, ErrRedisUnavailable
	}

	remaining := config.Rate - count
	if remaining < 0 {
		remaining = 0
	}

	return &Decision{
		Limit:      config.Rate,
		Remaining:  remaining,
		Reset:      time.Now().Add(config.Window),
		RetryAfter: int(config.Window.Seconds()),
		Allowed:    count <= config.Rate,
	}, nil
}
