package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/zennieheo/hackathon2024-BE/services/trackLog"
	"golang.org/x/time/rate"
)

const day = 24 * time.Hour

// RateLimiter keeps one token bucket per key. Anonymous callers are keyed by
// client IP and authenticated ones by owner.
type RateLimiter struct {
	mu       sync.Mutex
	anon     map[string]*rate.Limiter
	users    map[string]*rate.Limiter
	anonRate int
	userRate int
	maxKeys  int
	now      func() time.Time
}

// NewRateLimiter allows anonPerDay and userPerDay requests per key per day.
func NewRateLimiter(anonPerDay, userPerDay int) *RateLimiter {
	return &RateLimiter{
		anon:     make(map[string]*rate.Limiter),
		users:    make(map[string]*rate.Limiter),
		anonRate: anonPerDay,
		userRate: userPerDay,
		maxKeys:  10000,
		now:      time.Now,
	}
}

var unlimited = rate.NewLimiter(rate.Inf, 0)

// perDay refills evenly across the day with a full day's burst.
func perDay(n int) *rate.Limiter {
	return rate.NewLimiter(rate.Every(day/time.Duration(n)), n)
}

func (rl *RateLimiter) limiter(owner, ip string) *rate.Limiter {
	buckets, key, n := rl.anon, ip, rl.anonRate
	if owner != "" {
		buckets, key, n = rl.users, owner, rl.userRate
	}
	if n <= 0 {
		return unlimited
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	limiter, ok := buckets[key]
	if !ok {
		if len(buckets) >= rl.maxKeys {
			rl.evict(buckets)
		}
		limiter = perDay(n)
		buckets[key] = limiter
	}
	return limiter
}

// evict drops every refilled bucket, then the one closest to refilled if the
// map is still full. Spent buckets survive so their quota is not reset.
func (rl *RateLimiter) evict(buckets map[string]*rate.Limiter) {
	now := rl.now()
	victim, most := "", -1.0
	for key, limiter := range buckets {
		tokens := limiter.TokensAt(now)
		if tokens >= float64(limiter.Burst()) {
			delete(buckets, key)
			continue
		}
		if tokens > most {
			victim, most = key, tokens
		}
	}
	if len(buckets) >= rl.maxKeys {
		delete(buckets, victim)
	}
}

// Handler must run after Authenticate so the owner is known.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ip := Owner(c), c.ClientIP()
		if rl.limiter(owner, ip).AllowN(rl.now(), 1) {
			c.Next()
			return
		}

		trackLog.WithFields(logrus.Fields{
			"task":     "throttle",
			"owner_id": owner,
			"ip":       ip,
			"path":     c.Request.URL.Path,
		}).Warn("request throttled")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Request was throttled."})
	}
}
