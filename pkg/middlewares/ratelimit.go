package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/account-service-go/pkg"
)

// RateLimit returns Gin middleware that rejects requests once the limiter is exhausted.
func RateLimit(limiter *pkg.DistributedLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.Request.Context()) {
			c.AbortWithStatusJSON(pkg.ErrRateLimitedCode.Status, pkg.ErrorResponse{
				Status:  pkg.ErrRateLimitedCode.Status,
				Code:    pkg.ErrRateLimitedCode.Code,
				Message: pkg.ErrRateLimitedCode.Message,
			})
			return
		}
		c.Next()
	}
}
