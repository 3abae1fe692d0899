package services

import (
	"encoding/json"
	"log"
	"time"

	"devlink/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventLogger 行为日志。分析用途，写失败不影响业务流程。
type EventLogger struct {
	db *gorm.DB
}

func NewEventLogger(db *gorm.DB) *EventLogger {
	return &EventLogger{db: db}
}

func (e *EventLogger) Log(userID *string, kind string, payload map[string]interface{}) {
	var payloadStr string
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			payloadStr = string(b)
		}
	}

	event := models.Event{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		Payload:   payloadStr,
		CreatedAt: time.Now(),
	}
	if err := e.db.Create(&event).Error; err != nil {
		log.Printf("写入事件失败 (kind=%s): %v", kind, err)
	}
}
