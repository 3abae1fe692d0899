package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"devlink/internal/db"
	"devlink/internal/models"
	"devlink/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectHandler struct{}

func NewProjectHandler() *ProjectHandler {
	return &ProjectHandler{}
}

type createProjectRequest struct {
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	GithubURL string   `json:"github_url"`
	Tags      []string `json:"tags"`
}

// Create 创建项目，之后可以发 repo-card 帖引用它。POST /projects
func (h *ProjectHandler) Create(c *gin.Context) {
	user := CurrentUser(c)

	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, fmt.Errorf("%w: %v", services.ErrInvalidArgument, err))
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		JSONError(c, fmt.Errorf("%w: title is required", services.ErrInvalidArgument))
		return
	}

	project := models.Project{
		ID:        uuid.NewString(),
		OwnerID:   user.ID,
		Title:     req.Title,
		Summary:   req.Summary,
		GithubURL: req.GithubURL,
		Tags:      strings.Join(req.Tags, ","),
	}
	if err := db.DB.Create(&project).Error; err != nil {
		JSONError(c, err)
		return
	}

	project.Owner = *user
	c.JSON(http.StatusCreated, project)
}

// Get 项目详情。GET /projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	var project models.Project
	err := db.DB.Preload("Owner").First(&project, "id = ?", c.Param("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			JSONError(c, fmt.Errorf("%w: project %s", services.ErrNotFound, c.Param("id")))
			return
		}
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// ListByUser 某个用户的项目。GET /users/:id/projects
func (h *ProjectHandler) ListByUser(c *gin.Context) {
	var projects []models.Project
	err := db.DB.Where("owner_id = ?", c.Param("id")).
		Order("created_at DESC").
		Find(&projects).Error
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": projects})
}
