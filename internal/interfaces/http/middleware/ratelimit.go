package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/crosslist/backend/internal/infrastructure/ratelimit"
	"github.com/crosslist/backend/internal/interfaces/http/dto"
)

// ratelimitScope keys the limiter log separately from platform limiters.
const ratelimitScope = "http"

// RateLimit caps requests per client IP using a sliding-log limiter, so
// bursty clients cannot double up at window boundaries. Rejected requests
// get a 429 with Retry-After.
func RateLimit(limiter *ratelimit.SlidingLogLimiter, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := limiter.Allow(c.Request.Context(), ratelimitScope, c.ClientIP())

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

		if !d.Allowed {
			retryAfter := int(d.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponse(
				http.StatusTooManyRequests,
				dto.ErrCodeRateLimited,
				"too many requests, slow down",
				c.GetString("request_id"),
			))
			return
		}

		c.Next()
	}
}
