package worker

import (
	"context"
	"net/url"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long an unused key keeps its token bucket
const limiterIdleTTL = 10 * time.Minute

// Limiter implements keyed rate limiting: per host for outbound requests,
// per client address for inbound ones. Idle keys expire so the set of
// buckets stays bounded under many distinct clients.
type Limiter struct {
	limiters     *gocache.Cache
	mu           sync.Mutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a new rate limiter. A non-positive rate disables limiting.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}

	return &Limiter{
		limiters:     gocache.New(limiterIdleTTL, 2*limiterIdleTTL),
		defaultRate:  limit,
		defaultBurst: burst,
	}
}

// Wait waits for rate limit clearance for the host of rawURL
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	domain, err := extractDomain(rawURL)
	if err != nil {
		return err
	}
	return l.WaitKey(ctx, domain)
}

// Allow checks if a request to rawURL is allowed without waiting
func (l *Limiter) Allow(rawURL string) bool {
	domain, err := extractDomain(rawURL)
	if err != nil {
		return false
	}
	return l.AllowKey(domain)
}

// WaitKey waits for clearance for an arbitrary key
func (l *Limiter) WaitKey(ctx context.Context, key string) error {
	return l.getLimiter(key).Wait(ctx)
}

// AllowKey reports whether a request for key may proceed now
func (l *Limiter) AllowKey(key string) bool {
	return l.getLimiter(key).Allow()
}

// getLimiter returns the bucket for key, creating it on first use
func (l *Limiter) getLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, exp, found := l.limiters.GetWithExpiration(key); found {
		limiter := v.(*rate.Limiter)
		// Refresh the idle TTL; pinned domains have no expiration
		if !exp.IsZero() {
			l.limiters.SetDefault(key, limiter)
		}
		return limiter
	}

	limiter := rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters.SetDefault(key, limiter)
	return limiter
}

// SetDomainRate sets a custom rate limit for a specific domain; it never expires
func (l *Limiter) SetDomainRate(domain string, requestsPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}

	l.limiters.Set(domain, rate.NewLimiter(rate.Limit(requestsPerSecond), burst), gocache.NoExpiration)
}

// Len returns the number of live buckets
func (l *Limiter) Len() int {
	return l.limiters.ItemCount()
}

// extractDomain extracts the domain from a URL
func extractDomain(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return parsed.Host, nil
}

// WaitWithDelay waits for rate limit and adds an additional delay
func (l *Limiter) WaitWithDelay(ctx context.Context, rawURL string, additionalDelay time.Duration) error {
	if err := l.Wait(ctx, rawURL); err != nil {
		return err
	}

	if additionalDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(additionalDelay):
		}
	}

	return nil
}
