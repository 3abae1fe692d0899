package handlers

import (
	"errors"
	"log"
	"net/http"

	"devlink/internal/feed"
	"devlink/internal/middleware"
	"devlink/internal/models"
	"devlink/internal/services"

	"github.com/gin-gonic/gin"
)

// CurrentUser 取当前登录用户。只能在 AuthRequired 保护的路由里用。
func CurrentUser(c *gin.Context) *models.User {
	return c.MustGet(middleware.CheckUserKey).(*models.User)
}

// OptionalUser 取当前用户，未登录返回 nil。公开路由用。
func OptionalUser(c *gin.Context) *models.User {
	if u, exists := c.Get(middleware.CheckUserKey); exists {
		if user, ok := u.(*models.User); ok {
			return user
		}
	}
	return nil
}

// JSONError 把服务层错误映射成 HTTP 状态码。
// 没认出来的错误一律 500，细节只进日志不出响应。
func JSONError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidArgument), errors.Is(err, feed.ErrInvalidLimit):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrContentTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	default:
		log.Printf("请求处理失败 %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
