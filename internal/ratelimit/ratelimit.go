package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/amishk599/jobbeacon/internal/model"
)

// SourceRateLimiter enforces a minimum gap between requests to the same host.
// Several configured feeds may share one origin; they share its budget.
type SourceRateLimiter struct {
	mu       sync.Mutex
	next     map[string]time.Time // key: host, value: earliest allowed start
	minDelay time.Duration
}

// NewSourceRateLimiter creates a limiter. A zero minDelay never waits.
func NewSourceRateLimiter(minDelay time.Duration) *SourceRateLimiter {
	return &SourceRateLimiter{
		next:     make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// Wait blocks until host may be contacted again. Each caller reserves its own
// slot under the lock, so concurrent waiters on one host are spaced out rather
// than released together.
func (r *SourceRateLimiter) Wait(ctx context.Context, host string) error {
	if r.minDelay <= 0 {
		return nil
	}

	r.mu.Lock()
	now := time.Now()
	start := now
	if n, ok := r.next[host]; ok && n.After(now) {
		start = n
	}
	r.next[host] = start.Add(r.minDelay)
	r.mu.Unlock()

	wait := start.Sub(now)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", host, ctx.Err())
	case <-timer.C:
		return nil
	}
}

// RateLimitedFetcher waits on the shared limiter before delegating to the
// wrapped fetcher.
type RateLimitedFetcher struct {
	inner   model.JobFetcher
	limiter *SourceRateLimiter
	host    string
}

// NewRateLimitedFetcher wraps inner. sourceURL determines the host bucket;
// an unparseable URL is used verbatim as the key.
func NewRateLimitedFetcher(inner model.JobFetcher, limiter *SourceRateLimiter, sourceURL string) *RateLimitedFetcher {
	host := sourceURL
	if u, err := url.Parse(sourceURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return &RateLimitedFetcher{
		inner:   inner,
		limiter: limiter,
		host:    host,
	}
}

func (f *RateLimitedFetcher) FetchJobs(ctx context.Context) ([]model.Posting, error) {
	if err := f.limiter.Wait(ctx, f.host); err != nil {
		return nil, err
	}
	return f.inner.FetchJobs(ctx)
}
