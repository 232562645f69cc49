package users

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/matheusmosca/storefront/internal/apperr"
	"github.com/matheusmosca/storefront/internal/httpx"
)

// UserIDHeader carries the caller's id on admin routes.
const UserIDHeader = "X-User-ID"

// RequireAdmin lets the request through only when the X-User-ID header names
// an admin.
func RequireAdmin(service *Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(UserIDHeader)
		if raw == "" {
			httpx.RespondError(c, log, apperr.New(apperr.KindUnauthorized, "Authentication failed. No user ID provided.", nil))
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httpx.RespondError(c, log, apperr.New(apperr.KindUnauthorized, "Authentication failed. User not found.", nil))
			return
		}

		u, err := service.Get(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				httpx.RespondError(c, log, apperr.New(apperr.KindUnauthorized, "Authentication failed. User not found.", nil))
				return
			}
			httpx.RespondError(c, log, err)
			return
		}

		if u.Role != RoleAdmin {
			httpx.RespondError(c, log, apperr.New(apperr.KindForbidden, "Access denied. Administrator privileges required.", nil))
			return
		}
		c.Next()
	}
}

// RateLimiter keeps one token bucket per client IP.
// TODO: evict limiters of idle IPs; the map only grows.
type RateLimiter struct {
	ips   map[string]*rate.Limiter
	mu    sync.Mutex
	rate  rate.Limit
	burst int
}

// NewRateLimiter allows perMinute requests per IP with the given burst.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &RateLimiter{
		ips:   make(map[string]*rate.Limiter),
		rate:  rate.Every(time.Minute / time.Duration(perMinute)),
		burst: burst,
	}
}

func (rl *RateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, exists := rl.ips[ip]; exists {
		return limiter
	}

	limiter := rate.NewLimiter(rl.rate, rl.burst)
	rl.ips[ip] = limiter
	return limiter
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.GetLimiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, httpx.ErrorBody{
				Error:   "RateLimited",
				Message: "Too many requests. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
