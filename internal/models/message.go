package models

import (
	"time"
)

// Conversation 私信会话。成员在 ConversationParticipant 里，
// UpdatedAt 随每条新消息推进，会话列表按它排序。
type Conversation struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`

	// 非数据库字段，查询时填充
	Participants []User   `gorm:"-" json:"participants"`
	LastMessage  *Message `gorm:"-" json:"last_message,omitempty"`
	UnreadCount  int64    `gorm:"-" json:"unread_count"`
}

type ConversationParticipant struct {
	ID             string       `gorm:"primaryKey;size:36" json:"id"`
	ConversationID string       `gorm:"not null;index;size:36;uniqueIndex:idx_conversation_user" json:"conversation_id"`
	Conversation   Conversation `gorm:"foreignKey:ConversationID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID         string       `gorm:"not null;index;size:36;uniqueIndex:idx_conversation_user" json:"user_id"`
	User           User         `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt      time.Time    `json:"created_at"`
}

type Message struct {
	ID             string       `gorm:"primaryKey;size:36" json:"id"`
	ConversationID string       `gorm:"not null;index;size:36" json:"conversation_id"`
	Conversation   Conversation `gorm:"foreignKey:ConversationID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	SenderID       string       `gorm:"not null;index;size:36" json:"sender_id"`
	Sender         User         `gorm:"foreignKey:SenderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"sender"`
	Content        string       `gorm:"type:text;not null" json:"content"`
	Read           bool         `gorm:"not null;default:false;index" json:"read"`
	CreatedAt      time.Time    `gorm:"index" json:"created_at"`
}
