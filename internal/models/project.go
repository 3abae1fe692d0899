package models

import (
	"time"
)

// Project 开发者项目，repo-card 类型的帖子引用它
type Project struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	OwnerID   string    `gorm:"not null;index;size:36" json:"owner_id"`
	Owner     User      `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"owner"`
	Title     string    `gorm:"not null" json:"title"`
	Summary   string    `gorm:"type:text" json:"summary"`
	GithubURL string    `json:"github_url"`
	Tags      string    `json:"tags"` // 逗号分隔
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
