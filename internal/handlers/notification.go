package handlers

import (
	"fmt"
	"net/http"
	"time"

	"devlink/internal/db"
	"devlink/internal/feed"
	"devlink/internal/models"
	"devlink/internal/services"
	"devlink/internal/utils"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct{}

func NewNotificationHandler() *NotificationHandler {
	return &NotificationHandler{}
}

// List 我的通知，键集翻页。GET /notifications?cursor=&limit=&unread=1
func (h *NotificationHandler) List(c *gin.Context) {
	user := CurrentUser(c)

	limit := feed.DefaultPageSize
	if s := c.Query("limit"); s != "" {
		limit = utils.StringToInt(s)
	}
	if limit <= 0 {
		JSONError(c, fmt.Errorf("%w: %d", feed.ErrInvalidLimit, limit))
		return
	}
	if limit > feed.MaxPageSize {
		limit = feed.MaxPageSize
	}

	q := db.DB.Preload("Actor").Where("user_id = ?", user.ID)
	if c.Query("unread") == "1" {
		q = q.Where("read_at IS NULL")
	}
	if cur := feed.DecodeCursor(c.Query("cursor")); cur != nil {
		q = q.Where("(created_at < ? OR (created_at = ? AND id < ?))",
			cur.CreatedAt, cur.CreatedAt, cur.ID)
	}

	var notifications []models.Notification
	if err := q.Order("created_at DESC, id DESC").Limit(limit + 1).Find(&notifications).Error; err != nil {
		JSONError(c, err)
		return
	}

	hasMore := len(notifications) > limit
	if hasMore {
		notifications = notifications[:limit]
	}

	var nextCursor *string
	if hasMore && len(notifications) > 0 {
		last := notifications[len(notifications)-1]
		enc := feed.EncodeCursor(feed.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		nextCursor = &enc
	}

	c.JSON(http.StatusOK, gin.H{"items": notifications, "nextCursor": nextCursor})
}

// UnreadCount 未读数。GET /notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	user := CurrentUser(c)

	var count int64
	if err := db.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", user.ID).
		Count(&count).Error; err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// Read 标记单条已读。POST /notifications/:id/read
func (h *NotificationHandler) Read(c *gin.Context) {
	user := CurrentUser(c)
	id := c.Param("id")

	now := time.Now()
	res := db.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", id, user.ID).
		Update("read_at", now)
	if res.Error != nil {
		JSONError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		// 不存在或已读都走这里，已读的重复标记算幂等成功
		var n int64
		db.DB.Model(&models.Notification{}).Where("id = ? AND user_id = ?", id, user.ID).Count(&n)
		if n == 0 {
			JSONError(c, fmt.Errorf("%w: notification %s", services.ErrNotFound, id))
			return
		}
	}
	c.Status(http.StatusOK)
}

// ReadAll 全部标记已读。POST /notifications/read-all
func (h *NotificationHandler) ReadAll(c *gin.Context) {
	user := CurrentUser(c)

	res := db.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", user.ID).
		Update("read_at", time.Now())
	if res.Error != nil {
		JSONError(c, res.Error)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": res.RowsAffected})
}
