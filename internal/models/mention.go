package models

import (
	"time"
)

// Mention 帖子或评论正文里 @ 到某人的记录。
// PostID/CommentID 恰好一个非空。
type Mention struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	PostID          *string   `gorm:"index;size:36" json:"post_id,omitempty"`
	Post            *Post     `gorm:"foreignKey:PostID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"post,omitempty"`
	CommentID       *string   `gorm:"index;size:36" json:"comment_id,omitempty"`
	MentionedUserID string    `gorm:"not null;index;size:36" json:"mentioned_user_id"`
	MentionedUser   User      `gorm:"foreignKey:MentionedUserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedByID     string    `gorm:"not null;index;size:36" json:"created_by_id"`
	CreatedBy       User      `gorm:"foreignKey:CreatedByID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"created_by"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
}
