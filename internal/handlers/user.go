package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"devlink/internal/db"
	"devlink/internal/feed"
	"devlink/internal/models"
	"devlink/internal/services"
	"devlink/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserHandler struct {
	notifier *services.Notifier
	events   *services.EventLogger
}

func NewUserHandler(notifier *services.Notifier, events *services.EventLogger) *UserHandler {
	return &UserHandler{notifier: notifier, events: events}
}

// Profile 用户主页。GET /users/:handle
func (h *UserHandler) Profile(c *gin.Context) {
	handle := c.Param("handle")

	var user models.User
	err := db.DB.First(&user, "handle = ?", handle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			JSONError(c, fmt.Errorf("%w: user %s", services.ErrNotFound, handle))
			return
		}
		JSONError(c, err)
		return
	}

	db.DB.Model(&models.Follow{}).Where("following_id = ?", user.ID).Count(&user.FollowerCount)
	db.DB.Model(&models.Follow{}).Where("follower_id = ?", user.ID).Count(&user.FollowingCount)

	following := false
	if viewer := OptionalUser(c); viewer != nil && viewer.ID != user.ID {
		var n int64
		db.DB.Model(&models.Follow{}).
			Where("follower_id = ? AND following_id = ?", viewer.ID, user.ID).
			Count(&n)
		following = n > 0
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "following": following})
}

// Follow 关注/取关开关。POST /users/:id/follow
func (h *UserHandler) Follow(c *gin.Context) {
	user := CurrentUser(c)
	targetID := c.Param("id")

	if targetID == user.ID {
		JSONError(c, fmt.Errorf("%w: cannot follow yourself", services.ErrInvalidArgument))
		return
	}

	var target models.User
	err := db.DB.First(&target, "id = ?", targetID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			JSONError(c, fmt.Errorf("%w: user %s", services.ErrNotFound, targetID))
			return
		}
		JSONError(c, err)
		return
	}

	var existing models.Follow
	err = db.DB.Where("follower_id = ? AND following_id = ?", user.ID, targetID).
		First(&existing).Error
	if err == nil {
		if err := db.DB.Delete(&existing).Error; err != nil {
			JSONError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"action": "removed"})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		JSONError(c, err)
		return
	}

	follow := models.Follow{
		ID:          uuid.NewString(),
		FollowerID:  user.ID,
		FollowingID: targetID,
		CreatedAt:   time.Now(),
	}
	if err := db.DB.Create(&follow).Error; err != nil {
		// 并发重复请求撞上唯一索引，状态已经是已关注，按成功处理
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			JSONError(c, err)
			return
		}
	} else {
		go h.notifier.Notify(targetID, &user.ID, models.NotificationTypeFollow, user.ID, nil)
		go h.events.Log(&user.ID, "follow", map[string]interface{}{"target_id": targetID})
	}
	c.JSON(http.StatusOK, gin.H{"action": "added"})
}

// Followers 粉丝列表，键集翻页。GET /users/:id/followers?cursor=&limit=
func (h *UserHandler) Followers(c *gin.Context) {
	h.listFollows(c, "following_id", "follower_id")
}

// Following 关注列表。GET /users/:id/following?cursor=&limit=
func (h *UserHandler) Following(c *gin.Context) {
	h.listFollows(c, "follower_id", "following_id")
}

// listFollows 在 follows 表上做 (created_at, id) 键集翻页，
// cursor 格式和 feed 的完全一致
func (h *UserHandler) listFollows(c *gin.Context, whereCol, selectCol string) {
	userID := c.Param("id")

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

	q := db.DB.Where(whereCol+" = ?", userID)
	if cur := feed.DecodeCursor(c.Query("cursor")); cur != nil {
		q = q.Where("(created_at < ? OR (created_at = ? AND id < ?))",
			cur.CreatedAt, cur.CreatedAt, cur.ID)
	}

	var follows []models.Follow
	err := q.Order("created_at DESC, id DESC").Limit(limit + 1).Find(&follows).Error
	if err != nil {
		JSONError(c, err)
		return
	}

	hasMore := len(follows) > limit
	if hasMore {
		follows = follows[:limit]
	}

	ids := make([]string, len(follows))
	for i, f := range follows {
		if selectCol == "follower_id" {
			ids[i] = f.FollowerID
		} else {
			ids[i] = f.FollowingID
		}
	}

	users := []models.User{}
	if len(ids) > 0 {
		if err := db.DB.Where("id IN ?", ids).Find(&users).Error; err != nil {
			JSONError(c, err)
			return
		}
		// Find 不保证顺序，按 follow 时间重排
		byID := make(map[string]models.User, len(users))
		for _, u := range users {
			byID[u.ID] = u
		}
		ordered := make([]models.User, 0, len(ids))
		for _, id := range ids {
			if u, ok := byID[id]; ok {
				ordered = append(ordered, u)
			}
		}
		users = ordered
	}

	var nextCursor *string
	if hasMore && len(follows) > 0 {
		last := follows[len(follows)-1]
		enc := feed.EncodeCursor(feed.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		nextCursor = &enc
	}

	c.JSON(http.StatusOK, gin.H{"items": users, "nextCursor": nextCursor})
}
