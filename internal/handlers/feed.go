package handlers

import (
	"fmt"
	"net/http"
	"time"

	"devlink/internal/feed"
	"devlink/internal/services"
	"devlink/internal/utils"

	"github.com/gin-gonic/gin"
)

type FeedHandler struct {
	engine *feed.Engine
	events *services.EventLogger
}

func NewFeedHandler(engine *feed.Engine, events *services.EventLogger) *FeedHandler {
	return &FeedHandler{engine: engine, events: events}
}

// List 返回一页 feed。
// GET /feed?sort=ranked|new&cursor=...&limit=20
func (h *FeedHandler) List(c *gin.Context) {
	order := feed.OrderRanked
	if c.Query("sort") == string(feed.OrderChronological) {
		order = feed.OrderChronological
	}

	limit := feed.DefaultPageSize
	if s := c.Query("limit"); s != "" {
		limit = utils.StringToInt(s)
	}
	cursor := c.Query("cursor")

	viewerID := ""
	if u := OptionalUser(c); u != nil {
		viewerID = u.ID
	}

	// 匿名首页缓存 1 分钟。带 cursor 或登录态的请求结果因人/因页而异，不缓存
	cacheKey := ""
	if cursor == "" && viewerID == "" {
		cacheKey = fmt.Sprintf("feed:%s:first:%d", order, limit)
		if cached := utils.GetCache().Get(cacheKey); cached != nil {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	page, err := h.engine.GetPage(c.Request.Context(), feed.PageRequest{
		Cursor:   cursor,
		Limit:    limit,
		Order:    order,
		ViewerID: viewerID,
	})
	if err != nil {
		JSONError(c, err)
		return
	}

	if cacheKey != "" {
		utils.GetCache().Set(cacheKey, page, time.Minute)
	}

	var uid *string
	if viewerID != "" {
		uid = &viewerID
	}
	go h.events.Log(uid, "feed_view", map[string]interface{}{"sort": string(order)})

	c.JSON(http.StatusOK, page)
}
