package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"aiportal-backend/pkg/utils"
)

// IPRateLimiter manages rate limiters per IP
type IPRateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
}

// NewIPRateLimiter creates a new IP-based rate limiter
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     r,
		burst:    b,
	}
}

// GetLimiter returns the rate limiter for an IP
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, exists := i.limiters[ip]
	if !exists {
		limiter = rate.NewLimiter(i.rate, i.burst)
		i.limiters[ip] = limiter
	}

	return limiter
}

var (
	loginLimiter    = NewIPRateLimiter(rate.Every(time.Minute), 5)
	registerLimiter = NewIPRateLimiter(rate.Every(5*time.Minute), 3)
	generalLimiter  = NewIPRateLimiter(rate.Every(time.Second), 30)
)

func limit(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := utils.GetClientIP(c)
		if !limiter.GetLimiter(ip).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// LoginRateLimit throttles login attempts per IP
func LoginRateLimit() gin.HandlerFunc {
	return limit(loginLimiter)
}

// RegisterRateLimit throttles account registration per IP
func RegisterRateLimit() gin.HandlerFunc {
	return limit(registerLimiter)
}

// GeneralRateLimit throttles all other traffic per IP
func GeneralRateLimit() gin.HandlerFunc {
	return limit(generalLimiter)
}
