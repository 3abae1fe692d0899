package models

import (
	"time"
)

// Event 行为日志，只追加。写失败不影响业务流程。
type Event struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    *string   `gorm:"index;size:36" json:"user_id,omitempty"`
	Kind      string    `gorm:"size:40;not null;index" json:"kind"`
	Payload   string    `gorm:"type:text" json:"payload,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
