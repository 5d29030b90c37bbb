package server

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/anishchandragiri369/studio-sub001/internal/api"
	"github.com/anishchandragiri369/studio-sub001/internal/auth"
)

// RateLimiter keeps one token bucket per client key. Idle buckets are
// dropped after ttl.
type RateLimiter struct {
	visitors map[string]*visitor
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	ttl      time.Duration
	swept    time.Time
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(rps float64, burst int, ttl time.Duration) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(rps),
		burst:    burst,
		ttl:      ttl,
		now:      time.Now,
	}
}

// sweep drops idle visitors at most once per ttl. Callers hold mu.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.swept) < rl.ttl {
		return
	}
	rl.swept = now
	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.ttl {
			delete(rl.visitors, key)
		}
	}
}

func (rl *RateLimiter) reserve(key string) *rate.Reservation {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)

	v, exists := rl.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.ReserveN(now, 1)
}

// Allow reports whether key may proceed, and if not how long until it may.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	r := rl.reserve(key)
	if !r.OK() {
		return false, time.Second
	}
	delay := r.DelayFrom(rl.now())
	if delay == 0 {
		return true, 0
	}
	r.CancelAt(rl.now())
	return false, delay
}

func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// RateLimitMiddleware limits authenticated customers by email and everyone
// else by client IP.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	return rateLimit(NewRateLimiter(rps, burst, 3*time.Minute))
}

func rateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if email, ok := auth.GetUserEmail(c); ok {
			key = "customer:" + email
		}

		ok, wait := limiter.Allow(key)
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, api.ErrorResponse{Error: "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
