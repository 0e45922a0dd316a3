package httputil

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter rate-limits requests per URL host.
type HostLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHostLimiter allows perSecond requests per host with the given burst.
// A non-positive perSecond disables limiting.
func NewHostLimiter(perSecond float64, burst int) *HostLimiter {
	l := rate.Inf
	if perSecond > 0 {
		l = rate.Limit(perSecond)
	}
	return &HostLimiter{
		limit:    l,
		burst:    max(burst, 1),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until a request to rawURL's host is allowed or ctx is done.
func (h *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	if h == nil || h.limit == rate.Inf {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	return h.limiter(u.Host).Wait(ctx)
}

func (h *HostLimiter) limiter(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.limiters[host]
	if !ok {
		l = rate.NewLimiter(h.limit, h.burst)
		h.limiters[host] = l
	}
	return l
}
