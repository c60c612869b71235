package middleware

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	cmap "github.com/orcaman/concurrent-map/v2"
	"golang.org/x/time/rate"
)

const gcEvery = 5000

// keyFunc selects the identity used to key a rate-limit bucket.
type keyFunc func(*gin.Context) string

// KeyByClientIP keys buckets by "ip:<addr>". Platform ids in requests are
// asserted by the client, so they never select a bucket.
func KeyByClientIP() keyFunc {
	return func(c *gin.Context) string {
		return "ip:" + c.ClientIP()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// RateLimiter is an in-process token-bucket limiter with one bucket per
// identity. Buckets live in a sharded concurrent map and idle ones are
// evicted opportunistically. It is edge-level abuse control, not
// authorization, and is safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn keyFunc

	visitors cmap.ConcurrentMap[string, *visitor]
	skip     map[string]struct{}

	ttl     time.Duration
	lookups atomic.Uint64
	now     func() time.Time
}

// NewRateLimiter constructs a RateLimiter with the given tokens-per-second
// and burst size, keyed by keyFn. burst values <= 0 are coerced to 1.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		visitors: cmap.New[*visitor](),
		skip:     map[string]struct{}{},
		ttl:      10 * time.Minute,
		now:      time.Now,
	}
}

// Skip exempts exact request paths from limiting. Call before serving.
func (rl *RateLimiter) Skip(paths ...string) {
	for _, p := range paths {
		rl.skip[p] = struct{}{}
	}
}

// getVisitor returns the limiter for key, creating it if absent. Every
// gcEvery lookups, buckets idle for at least ttl are evicted first, so a
// stale bucket is replaced rather than refreshed.
func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	now := rl.now()
	if rl.lookups.Add(1)%gcEvery == 0 {
		rl.evictIdle(now)
	}

	fresh := &visitor{limiter: rate.NewLimiter(rl.rps, rl.burst)}
	fresh.lastSeen.Store(now.UnixNano())
	v := rl.visitors.Upsert(key, fresh, func(exists bool, old, nv *visitor) *visitor {
		if exists {
			return old
		}
		return nv
	})
	v.lastSeen.Store(now.UnixNano())
	return v.limiter
}

func (rl *RateLimiter) evictIdle(now time.Time) {
	cutoff := now.Add(-rl.ttl).UnixNano()
	for _, k := range rl.visitors.Keys() {
		rl.visitors.RemoveCb(k, func(_ string, v *visitor, exists bool) bool {
			return exists && v.lastSeen.Load() <= cutoff
		})
	}
}

// IsRateBypass reports whether IdempotencyValidator marked this request for
// rate-limit bypass (i.e., it is a replay of a previously completed request).
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass) // set by IdempotencyValidator
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler returns a Gin middleware that enforces per-key token-bucket limits.
// Replays flagged by IdempotencyValidator and skipped paths pass through.
// Denied requests get 429 with Retry-After and the standard error envelope:
//
//	{
//	  "request_id": "<uuid>",
//	  "code":       "rate_limited",
//	  "message":    "rate limit exceeded"
//	}
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, skip := rl.skip[c.Request.URL.Path]; skip || IsRateBypass(c) {
			c.Next()
			return
		}

		if rl.getVisitor(rl.keyFn(c)).Allow() {
			c.Next()
			return
		}

		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get("X-Request-ID"),
			"code":       "rate_limited",
			"message":    "rate limit exceeded",
		})
	}
}
