package models

import (
	"time"
)

type PostType string

const (
	PostTypeNote     PostType = "NOTE"
	PostTypeRepoCard PostType = "REPO_CARD"
)

type Post struct {
	ID       string   `gorm:"primaryKey;size:36;index:idx_posts_created_id,priority:2" json:"id"`
	AuthorID string   `gorm:"not null;index;size:36" json:"author_id"`
	Author   User     `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Type     PostType `gorm:"type:varchar(20);not null;default:'NOTE'" json:"type"`
	// NOTE 帖存 markdown 正文；REPO_CARD 帖存 RepoCard 的 JSON 快照
	Content string `gorm:"type:text" json:"content"`
	// rank_score 只由排名刷新任务写入，请求路径永远不写，避免读放大写
	RankScore *float64  `gorm:"index" json:"rank_score,omitempty"`
	CreatedAt time.Time `gorm:"index:idx_posts_created_id,priority:1" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 非数据库字段，查询时填充
	LikeCount     int64 `gorm:"-" json:"like_count"`
	CommentCount  int64 `gorm:"-" json:"comment_count"`
	BookmarkCount int64 `gorm:"-" json:"bookmark_count"`
	Liked         bool  `gorm:"-" json:"liked"`
	Bookmarked    bool  `gorm:"-" json:"bookmarked"`
}

// RepoCard 是 REPO_CARD 帖子的内容快照。发帖时从 Project 拷贝，
// 之后项目改名不会回写旧帖。
type RepoCard struct {
	ProjectID string   `json:"project_id"`
	Title     string   `json:"title"`
	Summary   []string `json:"summary"`
	GithubURL string   `json:"github_url"`
	Tags      []string `json:"tags"`
}
