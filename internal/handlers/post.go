package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"devlink/internal/db"
	"devlink/internal/models"
	"devlink/internal/services"
	"devlink/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostHandler struct {
	aggregator *services.Aggregator
	events     *services.EventLogger
	mentions   *services.MentionService
}

func NewPostHandler(aggregator *services.Aggregator, events *services.EventLogger, mentions *services.MentionService) *PostHandler {
	return &PostHandler{aggregator: aggregator, events: events, mentions: mentions}
}

type createPostRequest struct {
	Type      models.PostType `json:"type"`
	Content   string          `json:"content"`
	ProjectID string          `json:"project_id"`
}

// Create 发帖。NOTE 存 markdown 原文，渲染在读取时做；
// REPO_CARD 把项目当前状态快照进 content，之后项目改了也不回写。
func (h *PostHandler) Create(c *gin.Context) {
	user := CurrentUser(c)

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, fmt.Errorf("%w: %v", services.ErrInvalidArgument, err))
		return
	}

	post := models.Post{
		ID:       uuid.NewString(),
		AuthorID: user.ID,
		Type:     req.Type,
	}

	switch req.Type {
	case models.PostTypeNote:
		if strings.TrimSpace(req.Content) == "" {
			JSONError(c, fmt.Errorf("%w: content is required", services.ErrInvalidArgument))
			return
		}
		if n := utf8.RuneCountInString(req.Content); n > services.MaxContentLength {
			JSONError(c, fmt.Errorf("%w: %d chars (max %d)", services.ErrContentTooLarge, n, services.MaxContentLength))
			return
		}
		post.Content = req.Content
	case models.PostTypeRepoCard:
		var project models.Project
		err := db.DB.First(&project, "id = ?", req.ProjectID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				JSONError(c, fmt.Errorf("%w: project %s", services.ErrNotFound, req.ProjectID))
				return
			}
			JSONError(c, err)
			return
		}
		if project.OwnerID != user.ID {
			JSONError(c, fmt.Errorf("%w: project belongs to another user", services.ErrInvalidArgument))
			return
		}

		card := models.RepoCard{
			ProjectID: project.ID,
			Title:     project.Title,
			GithubURL: project.GithubURL,
		}
		if project.Summary != "" {
			card.Summary = strings.Split(project.Summary, "\n")
		}
		if project.Tags != "" {
			card.Tags = strings.Split(project.Tags, ",")
		}
		snapshot, err := json.Marshal(card)
		if err != nil {
			JSONError(c, err)
			return
		}
		post.Content = string(snapshot)
	default:
		JSONError(c, fmt.Errorf("%w: unknown post type %q", services.ErrInvalidArgument, req.Type))
		return
	}

	if err := db.DB.Create(&post).Error; err != nil {
		JSONError(c, err)
		return
	}

	go h.events.Log(&user.ID, "post_create", map[string]interface{}{
		"post_id": post.ID, "type": string(post.Type),
	})
	// @ 解析是尽力而为，失败不影响发帖
	if post.Type == models.PostTypeNote {
		go func() {
			if _, err := h.mentions.CreatePostMentions(context.Background(), post.ID, post.Content, user.ID); err != nil {
				log.Printf("处理帖子 %s 的 @ 提及失败: %v", post.ID, err)
			}
		}()
	}

	post.Author = *user
	c.JSON(http.StatusCreated, post)
}

// Detail 帖子详情：帖子本体、渲染后的 HTML（NOTE 帖）、互动汇总。
// GET /posts/:id
func (h *PostHandler) Detail(c *gin.Context) {
	postID := c.Param("id")

	type postView struct {
		Post        models.Post      `json:"post"`
		ContentHTML string           `json:"content_html,omitempty"`
		RepoCard    *models.RepoCard `json:"repo_card,omitempty"`
	}

	// 帖子本体和渲染结果与访问者无关，缓存 5 分钟；互动部分每次现查
	var view postView
	cacheKey := "post:" + postID
	if cached, ok := utils.GetCache().Get(cacheKey).(postView); ok {
		view = cached
	} else {
		var post models.Post
		err := db.DB.Preload("Author").First(&post, "id = ?", postID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				JSONError(c, fmt.Errorf("%w: post %s", services.ErrNotFound, postID))
				return
			}
			JSONError(c, err)
			return
		}

		view = postView{Post: post}
		switch post.Type {
		case models.PostTypeNote:
			view.ContentHTML = utils.RenderMarkdown(post.Content)
		case models.PostTypeRepoCard:
			var card models.RepoCard
			if err := json.Unmarshal([]byte(post.Content), &card); err == nil {
				view.RepoCard = &card
			}
		}
		utils.GetCache().Set(cacheKey, view, 5*time.Minute)
	}

	viewerID := ""
	var uid *string
	if u := OptionalUser(c); u != nil {
		viewerID = u.ID
		uid = &u.ID
	}
	interactions, err := h.aggregator.PostInteractions(c.Request.Context(), postID, viewerID)
	if err != nil {
		JSONError(c, err)
		return
	}

	go h.events.Log(uid, "post_view", map[string]interface{}{"post_id": postID})

	c.JSON(http.StatusOK, gin.H{
		"post":         view.Post,
		"content_html": view.ContentHTML,
		"repo_card":    view.RepoCard,
		"interactions": interactions,
	})
}

// Delete 删帖，仅作者本人。互动行跟着外键级联清掉。
func (h *PostHandler) Delete(c *gin.Context) {
	user := CurrentUser(c)
	postID := c.Param("id")

	res := db.DB.Where("id = ? AND author_id = ?", postID, user.ID).Delete(&models.Post{})
	if res.Error != nil {
		JSONError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		JSONError(c, fmt.Errorf("%w: post %s", services.ErrNotFound, postID))
		return
	}

	utils.GetCache().Delete("post:" + postID)
	c.Status(http.StatusNoContent)
}
