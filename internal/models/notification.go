package models

import (
	"time"
)

type NotificationType string

const (
	NotificationTypeLike     NotificationType = "LIKE"
	NotificationTypeBookmark NotificationType = "BOOKMARK"
	NotificationTypeComment  NotificationType = "COMMENT"
	NotificationTypeFollow   NotificationType = "FOLLOW"
	NotificationTypeMention  NotificationType = "MENTION"
	NotificationTypeMessage  NotificationType = "MESSAGE"
)

type Notification struct {
	ID        string           `gorm:"primaryKey;size:36" json:"id"`
	UserID    string           `gorm:"not null;index;size:36" json:"user_id"` // 接收者
	User      User             `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	ActorID   *string          `gorm:"index;size:36" json:"actor_id,omitempty"` // 触发者
	Actor     *User            `gorm:"foreignKey:ActorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"actor,omitempty"`
	Type      NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	RefID     string           `gorm:"index;size:36" json:"ref_id"` // 关联的帖子/用户 ID
	Meta      string           `gorm:"type:text" json:"meta,omitempty"`
	ReadAt    *time.Time       `gorm:"index" json:"read_at,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
