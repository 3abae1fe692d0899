package handlers

import (
	"net/http"

	"devlink/internal/services"
	"devlink/internal/utils"

	"github.com/gin-gonic/gin"
)

type MentionHandler struct {
	mentions *services.MentionService
}

func NewMentionHandler(mentions *services.MentionService) *MentionHandler {
	return &MentionHandler{mentions: mentions}
}

// List 我被 @ 的记录。GET /mentions?limit=
func (h *MentionHandler) List(c *gin.Context) {
	user := CurrentUser(c)

	items, err := h.mentions.UserMentions(c.Request.Context(), user.ID, utils.StringToInt(c.Query("limit")))
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Search @ 自动补全。GET /mentions/search?q=
func (h *MentionHandler) Search(c *gin.Context) {
	users, err := h.mentions.SearchUsers(c.Request.Context(), c.Query("q"), utils.StringToInt(c.Query("limit")))
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}
