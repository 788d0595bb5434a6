package papersources

import (
	"context"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/helixir/scholar-rank-service/internal/domain"
)

// Upstream quota headers.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
)

// RateLimiter is the optional local token bucket in front of upstream calls.
// Safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a new rate limiter.
// ratePerSecond is the sustained rate of requests per second; a value <= 0
// yields a limiter that never blocks.
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	limit := rate.Limit(ratePerSecond)
	if ratePerSecond <= 0 {
		limit = rate.Inf
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Wait blocks until a request is allowed or the context is canceled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// ParseRateLimitHeaders copies the upstream quota headers verbatim.
// Missing headers yield empty values.
func ParseRateLimitHeaders(h http.Header) domain.RateLimitInfo {
	return domain.RateLimitInfo{
		Limit:     h.Get(HeaderRateLimitLimit),
		Remaining: h.Get(HeaderRateLimitRemaining),
		Reset:     h.Get(HeaderRateLimitReset),
	}
}
