package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"devlink/internal/models"
	"devlink/internal/services"

	"github.com/gin-gonic/gin"
)

type InteractionHandler struct {
	aggregator *services.Aggregator
	mentions   *services.MentionService
}

func NewInteractionHandler(aggregator *services.Aggregator, mentions *services.MentionService) *InteractionHandler {
	return &InteractionHandler{aggregator: aggregator, mentions: mentions}
}

// Like 点赞/取消点赞。POST /posts/:id/like
func (h *InteractionHandler) Like(c *gin.Context) {
	h.toggle(c, models.KindLike)
}

// Bookmark 收藏/取消收藏。POST /posts/:id/bookmark
func (h *InteractionHandler) Bookmark(c *gin.Context) {
	h.toggle(c, models.KindBookmark)
}

func (h *InteractionHandler) toggle(c *gin.Context, kind models.InteractionKind) {
	user := CurrentUser(c)
	postID := c.Param("id")

	action, err := h.aggregator.Toggle(c.Request.Context(), postID, user.ID, kind)
	if err != nil {
		JSONError(c, err)
		return
	}

	counts, err := h.aggregator.Counts(c.Request.Context(), postID)
	if err != nil {
		JSONError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"action": action, "counts": counts})
}

type createCommentRequest struct {
	Content string `json:"content"`
}

// Comment 发表评论。POST /posts/:id/comments
func (h *InteractionHandler) Comment(c *gin.Context) {
	user := CurrentUser(c)
	postID := c.Param("id")

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, fmt.Errorf("%w: %v", services.ErrInvalidArgument, err))
		return
	}

	comment, err := h.aggregator.AddComment(c.Request.Context(), postID, user.ID, req.Content)
	if err != nil {
		JSONError(c, err)
		return
	}

	// @ 解析是尽力而为，失败不影响评论
	go func() {
		if _, err := h.mentions.CreateCommentMentions(context.Background(), comment.ID, postID, comment.Content, user.ID); err != nil {
			log.Printf("处理评论 %s 的 @ 提及失败: %v", comment.ID, err)
		}
	}()

	comment.User = *user
	c.JSON(http.StatusCreated, comment)
}

// DeleteComment 删除自己的评论。DELETE /posts/:id/comments/:cid
func (h *InteractionHandler) DeleteComment(c *gin.Context) {
	user := CurrentUser(c)

	err := h.aggregator.DeleteInteraction(c.Request.Context(),
		c.Param("id"), user.ID, models.KindComment, c.Param("cid"))
	if err != nil {
		JSONError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Unlike 显式取消点赞（幂等客户端用）。DELETE /posts/:id/like
func (h *InteractionHandler) Unlike(c *gin.Context) {
	h.remove(c, models.KindLike)
}

// Unbookmark 显式取消收藏。DELETE /posts/:id/bookmark
func (h *InteractionHandler) Unbookmark(c *gin.Context) {
	h.remove(c, models.KindBookmark)
}

func (h *InteractionHandler) remove(c *gin.Context, kind models.InteractionKind) {
	user := CurrentUser(c)

	err := h.aggregator.DeleteInteraction(c.Request.Context(), c.Param("id"), user.ID, kind, "")
	if err != nil {
		JSONError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// List 帖子的互动汇总。GET /posts/:id/interactions
func (h *InteractionHandler) List(c *gin.Context) {
	viewerID := ""
	if u := OptionalUser(c); u != nil {
		viewerID = u.ID
	}

	result, err := h.aggregator.PostInteractions(c.Request.Context(), c.Param("id"), viewerID)
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
