package handlers

import (
	"fmt"
	"net/http"

	"devlink/internal/services"
	"devlink/internal/utils"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	messages *services.MessageService
}

func NewMessageHandler(messages *services.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// Conversations 我的会话列表。GET /conversations?limit=
func (h *MessageHandler) Conversations(c *gin.Context) {
	user := CurrentUser(c)

	items, err := h.messages.Conversations(c.Request.Context(), user.ID, utils.StringToInt(c.Query("limit")))
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type openConversationRequest struct {
	UserID string `json:"user_id"`
}

// Open 和某人开（或找回）会话。POST /conversations
func (h *MessageHandler) Open(c *gin.Context) {
	user := CurrentUser(c)

	var req openConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, fmt.Errorf("%w: %v", services.ErrInvalidArgument, err))
		return
	}

	conv, err := h.messages.GetOrCreateConversation(c.Request.Context(), user.ID, req.UserID)
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// Messages 会话里的消息。GET /conversations/:id/messages?limit=
func (h *MessageHandler) Messages(c *gin.Context) {
	user := CurrentUser(c)

	items, err := h.messages.Messages(c.Request.Context(),
		c.Param("id"), user.ID, utils.StringToInt(c.Query("limit")))
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

// Send 发消息。POST /conversations/:id/messages
func (h *MessageHandler) Send(c *gin.Context) {
	user := CurrentUser(c)

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, fmt.Errorf("%w: %v", services.ErrInvalidArgument, err))
		return
	}

	message, err := h.messages.SendMessage(c.Request.Context(), c.Param("id"), user.ID, req.Content)
	if err != nil {
		JSONError(c, err)
		return
	}

	message.Sender = *user
	c.JSON(http.StatusCreated, message)
}

// Delete 删自己的消息。DELETE /messages/:id
func (h *MessageHandler) Delete(c *gin.Context) {
	user := CurrentUser(c)

	if err := h.messages.DeleteMessage(c.Request.Context(), c.Param("id"), user.ID); err != nil {
		JSONError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UnreadCount 未读私信总数。GET /messages/unread-count
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	user := CurrentUser(c)

	count, err := h.messages.UnreadCount(c.Request.Context(), user.ID)
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}
