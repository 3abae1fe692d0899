package models

import (
	"time"
)

type InteractionKind string

const (
	KindLike     InteractionKind = "LIKE"
	KindBookmark InteractionKind = "BOOKMARK"
	KindComment  InteractionKind = "COMMENT"
)

// Interaction 用户对帖子的互动。LIKE/BOOKMARK 每个 (post, user) 至多一条，
// 由 db.Migrate 建的部分唯一索引保证；COMMENT 不限条数。
type Interaction struct {
	ID        string          `gorm:"primaryKey;size:36" json:"id"`
	PostID    string          `gorm:"not null;index;size:36" json:"post_id"`
	Post      Post            `gorm:"foreignKey:PostID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID    string          `gorm:"not null;index;size:36" json:"user_id"`
	User      User            `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	Kind      InteractionKind `gorm:"type:varchar(10);not null;index" json:"kind"`
	Content   string          `gorm:"type:text" json:"content,omitempty"` // 仅 COMMENT，已消毒的 HTML
	CreatedAt time.Time       `json:"created_at"`
}
