package router

import (
	"fmt"
	"net/http"
	"time"

	"reflectionsmatch/controllers"

	"github.com/gin-gonic/gin"
	cache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per caller. Idle buckets expire.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	buckets *cache.Cache
}

func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 20
	}
	if burst <= 0 {
		burst = 5
	}
	return &RateLimiter{
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   burst,
		buckets: cache.New(30*time.Minute, 10*time.Minute),
	}
}

func (l *RateLimiter) bucket(key string) *rate.Limiter {
	if v, ok := l.buckets.Get(key); ok {
		return v.(*rate.Limiter)
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	// Add fails when another request created it first
	if err := l.buckets.Add(key, lim, cache.DefaultExpiration); err != nil {
		if v, ok := l.buckets.Get(key); ok {
			return v.(*rate.Limiter)
		}
	}
	return lim
}

func (l *RateLimiter) Allow(key string) bool {
	return l.bucket(key).Allow()
}

// Middleware limits by user id after authentication, by client ip otherwise.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if user, ok := controllers.GetUserLogged(c); ok {
			key = fmt.Sprintf("user:%d", user.ID)
		}
		if !l.Allow(key) {
			controllers.RespondError(c, "muitas requisições, tente novamente em instantes", http.StatusTooManyRequests)
			c.Abort()
			return
		}
		c.Next()
	}
}
