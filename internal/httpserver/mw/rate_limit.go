package mw

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/MrSnakeDoc/tenancy/internal/utils"
)

// RateLimitConfig configures the token buckets of RateLimit.
type RateLimitConfig struct {
	Burst        int           // bucket size
	RefillPerMin int           // tokens added per minute
	IdleTTL      time.Duration // buckets unused this long are dropped, default 15m
	TrustProxy   bool          // resolve the client from proxy headers

	// KeyFunc picks the bucket of a request. Defaults to the client IP.
	KeyFunc func(r *http.Request, trustProxy bool) string
}

// HostAndIP buckets requests per request host and client IP.
func HostAndIP(r *http.Request, trustProxy bool) string {
	return strings.ToLower(r.Host) + "|" + utils.ClientIP(r, trustProxy)
}

type bucket struct {
	mu     sync.Mutex
	tokens float64
	last   time.Time
}

// take refills b for the time elapsed since its last use and consumes one
// token when available. retry is the wait in seconds for the next token.
func (b *bucket) take(now time.Time, rate, capacity float64) (ok bool, remaining, retry int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens = math.Min(capacity, b.tokens+elapsed*rate)
		b.last = now
	}
	if b.tokens >= 1 {
		b.tokens--
		return true, int(b.tokens), 0
	}
	return false, 0, max(1, int(math.Ceil((1-b.tokens)/rate)))
}

type limiter struct {
	cfg      RateLimitConfig
	rate     float64 // tokens per second
	capacity float64
	buckets  *gocache.Cache
	mu       sync.Mutex // serializes bucket creation
}

func newLimiter(cfg RateLimitConfig) *limiter {
	cfg.Burst = max(cfg.Burst, 1)
	cfg.RefillPerMin = max(cfg.RefillPerMin, 1)
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = utils.ClientIP
	}
	return &limiter{
		cfg:      cfg,
		rate:     float64(cfg.RefillPerMin) / 60,
		capacity: float64(cfg.Burst),
		buckets:  gocache.New(cfg.IdleTTL, cfg.IdleTTL),
	}
}

func (l *limiter) bucket(key string, now time.Time) *bucket {
	if v, ok := l.buckets.Get(key); ok {
		return v.(*bucket)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if v, ok := l.buckets.Get(key); ok {
		return v.(*bucket)
	}
	b := &bucket{tokens: l.capacity, last: now}
	l.buckets.SetDefault(key, b)
	return b
}

func (l *limiter) allow(key string, now time.Time) (bool, int, int) {
	b := l.bucket(key, now)
	ok, remaining, retry := b.take(now, l.rate, l.capacity)
	if ok {
		// Pushes the idle expiry back.
		l.buckets.SetDefault(key, b)
	}
	return ok, remaining, retry
}

// RateLimit answers 429 once the bucket of a request is empty. Buckets
// refill continuously up to Burst.
func RateLimit(cfg RateLimitConfig) Middleware {
	l := newLimiter(cfg)
	limit := strconv.Itoa(l.cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, remaining, retry := l.allow(l.cfg.KeyFunc(r, l.cfg.TrustProxy), time.Now())

			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !ok {
				h.Set("Retry-After", strconv.Itoa(retry))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
