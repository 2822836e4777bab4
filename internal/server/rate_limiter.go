// Package server builds the token bucket used for per-connection
// throttling that protects the relay from abuse.
package server

import (
	"time"

	"golang.org/x/time/rate"
)

// newRateLimiter allows cfg.Burst events per cfg.RefillInterval with a
// bucket of cfg.Burst tokens.
func newRateLimiter(cfg RateLimitConfig) *rate.Limiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	interval := cfg.RefillInterval
	if interval <= 0 {
		interval = time.Second
	}
	return rate.NewLimiter(rate.Every(interval/time.Duration(burst)), burst)
}
