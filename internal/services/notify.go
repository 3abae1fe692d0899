package services

import (
	"encoding/json"
	"log"
	"time"

	"devlink/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notifier 尽力而为的通知投递。写失败只记日志，
// 永远不能让触发它的那次互动写入跟着失败。
type Notifier struct {
	db *gorm.DB
}

func NewNotifier(db *gorm.DB) *Notifier {
	return &Notifier{db: db}
}

// Notify 给 userID 投一条通知。actor 是自己时跳过（自己赞自己的帖不通知）。
func (n *Notifier) Notify(userID string, actorID *string, typ models.NotificationType, refID string, meta map[string]interface{}) {
	if actorID != nil && *actorID == userID {
		return
	}

	var metaStr string
	if meta != nil {
		if b, err := json.Marshal(meta); err == nil {
			metaStr = string(b)
		}
	}

	notification := models.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		ActorID:   actorID,
		Type:      typ,
		RefID:     refID,
		Meta:      metaStr,
		CreatedAt: time.Now(),
	}
	if err := n.db.Create(&notification).Error; err != nil {
		log.Printf("创建通知失败 (user=%s type=%s): %v", userID, typ, err)
	}
}
