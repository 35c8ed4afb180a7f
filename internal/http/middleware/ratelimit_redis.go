package middleware

import (
	"net/http"
	"strconv"

	"gamebot/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

// RedisRateLimit applies l per authenticated user, or per client IP before
// authentication. A limiter without Redis lets every request through.
func RedisRateLimit(l *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := "ip:" + c.ClientIP()
		if v, ok := c.Get("user_id"); ok {
			if id, ok := v.(int64); ok {
				ident = "user:" + strconv.FormatInt(id, 10)
			}
		}

		ok, remaining := l.Hit(c.Request.Context(), ident)
		c.Header("X-RateLimit-Limit", strconv.Itoa(l.Max()))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": int(l.Window().Seconds()),
			})
			return
		}

		c.Next()
	}
}
