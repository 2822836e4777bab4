package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestRateLimiterBurst verifies that a full bucket allows exactly Burst
// events.
func TestRateLimiterBurst(t *testing.T) {
	limiter := newRateLimiter(RateLimitConfig{Burst: 3, RefillInterval: time.Hour})

	for i := 0; i < 3; i++ {
		require.True(t, limiter.Allow(), "event %d", i)
	}
	require.False(t, limiter.Allow())
}

// TestRateLimiterDefaults verifies that invalid settings still yield a
// working limiter.
func TestRateLimiterDefaults(t *testing.T) {
	limiter := newRateLimiter(RateLimitConfig{})
	require.Equal(t, 1, limiter.Burst())
	require.True(t, limiter.Allow())
}

// TestClientCheckRateLimit verifies that a client drops frames past its
// budget.
func TestClientCheckRateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimitBurst = 2
	cfg.RateLimitRefillInterval = time.Hour
	c := NewClient(nil, Session{UserID: "alice"}, "test", cfg, nil, nil)

	require.True(t, c.checkRateLimit())
	require.True(t, c.checkRateLimit())
	require.False(t, c.checkRateLimit())
}
