package middleware

import (
	"log"
	"net/http"

	"devlink/internal/models"
	"devlink/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

// RateLimit 写操作限流。登录用户按用户算额度，匿名按 IP。
func RateLimit(limiter ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if u, exists := c.Get(CheckUserKey); exists {
			if user, ok := u.(*models.User); ok {
				key = "user:" + user.ID
			}
		}

		ok, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			// 限流器出错放行，见 ratelimit 包的 fail-open 约定
			log.Printf("限流检查出错 (key=%s): %v", key, err)
			c.Next()
			return
		}
		if !ok {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":      "too many requests",
				"retryAfter": 60,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
