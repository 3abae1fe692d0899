package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"devlink/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageService 私信。会话是两人（或多人）的容器，消息挂在会话下。
// 每条新消息推进会话的 updated_at，会话列表按它倒序。
type MessageService struct {
	db       *gorm.DB
	notifier *Notifier
}

func NewMessageService(db *gorm.DB, notifier *Notifier) *MessageService {
	return &MessageService{db: db, notifier: notifier}
}

// ConversationSummary 会话列表里的一行
type ConversationSummary struct {
	ID           string          `json:"id"`
	Participants []models.User   `json:"participants"`
	LastMessage  *models.Message `json:"last_message,omitempty"`
	UnreadCount  int64           `json:"unread_count"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Conversations 我的会话列表，最近活跃的在前
func (s *MessageService) Conversations(ctx context.Context, userID string, limit int) ([]ConversationSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	var conversations []models.Conversation
	err := s.db.WithContext(ctx).
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id").
		Where("cp.user_id = ?", userID).
		Order("conversations.updated_at DESC, conversations.id DESC").
		Limit(limit).
		Find(&conversations).Error
	if err != nil {
		return nil, fmt.Errorf("load conversations: %w", err)
	}

	summaries := make([]ConversationSummary, 0, len(conversations))
	for _, conv := range conversations {
		summary := ConversationSummary{ID: conv.ID, UpdatedAt: conv.UpdatedAt}

		// 成员（含自己）
		err := s.db.WithContext(ctx).Model(&models.User{}).
			Joins("JOIN conversation_participants cp ON cp.user_id = users.id").
			Where("cp.conversation_id = ?", conv.ID).
			Find(&summary.Participants).Error
		if err != nil {
			return nil, fmt.Errorf("load participants: %w", err)
		}

		var last models.Message
		err = s.db.WithContext(ctx).Preload("Sender").
			Where("conversation_id = ?", conv.ID).
			Order("created_at DESC, id DESC").
			First(&last).Error
		if err == nil {
			summary.LastMessage = &last
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("load last message: %w", err)
		}

		s.db.WithContext(ctx).Model(&models.Message{}).
			Where("conversation_id = ? AND sender_id <> ? AND read = ?", conv.ID, userID, false).
			Count(&summary.UnreadCount)

		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// GetOrCreateConversation 找到和对方的现有会话，没有就建一个。
// 自己和自己不开会话。
func (s *MessageService) GetOrCreateConversation(ctx context.Context, userID, otherUserID string) (*models.Conversation, error) {
	if otherUserID == userID {
		return nil, fmt.Errorf("%w: cannot message yourself", ErrInvalidArgument)
	}

	var other models.User
	if err := s.db.WithContext(ctx).First(&other, "id = ?", otherUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, otherUserID)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	// 两人同时在场且没有第三人的会话
	var existing models.Conversation
	err := s.db.WithContext(ctx).
		Joins("JOIN conversation_participants a ON a.conversation_id = conversations.id AND a.user_id = ?", userID).
		Joins("JOIN conversation_participants b ON b.conversation_id = conversations.id AND b.user_id = ?", otherUserID).
		Where("(SELECT COUNT(*) FROM conversation_participants cp WHERE cp.conversation_id = conversations.id) = 2").
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find conversation: %w", err)
	}

	conv := models.Conversation{ID: uuid.NewString(), CreatedAt: time.Now(), UpdatedAt: time.Now()}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&conv).Error; err != nil {
			return err
		}
		for _, uid := range []string{userID, otherUserID} {
			p := models.ConversationParticipant{
				ID:             uuid.NewString(),
				ConversationID: conv.ID,
				UserID:         uid,
			}
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return &conv, nil
}

func (s *MessageService) isParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check participant: %w", err)
	}
	return n > 0, nil
}

// Messages 取会话里的消息（新的在前），顺手把别人发给我的标成已读。
// 只有会话成员能看。
func (s *MessageService) Messages(ctx context.Context, conversationID, userID string, limit int) ([]models.Message, error) {
	ok, err := s.isParticipant(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: not a participant in this conversation", ErrForbidden)
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var messages []models.Message
	err = s.db.WithContext(ctx).Preload("Sender").
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	s.db.WithContext(ctx).Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND read = ?", conversationID, userID, false).
		Update("read", true)

	return messages, nil
}

// SendMessage 发消息：成员校验、消毒、落库、推进会话时间戳，
// 然后通知其他成员（带前 100 字预览）。
func (s *MessageService) SendMessage(ctx context.Context, conversationID, userID, content string) (*models.Message, error) {
	ok, err := s.isParticipant(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: not a participant in this conversation", ErrForbidden)
	}

	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: message content is required", ErrInvalidArgument)
	}
	sanitized, err := SanitizeContent(content)
	if err != nil {
		return nil, err
	}

	message := models.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       userID,
		Content:        sanitized,
		CreatedAt:      time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&message).Error; err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	s.db.WithContext(ctx).Model(&models.Conversation{}).
		Where("id = ?", conversationID).
		Update("updated_at", time.Now())

	var others []models.ConversationParticipant
	if err := s.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id <> ?", conversationID, userID).
		Find(&others).Error; err == nil {
		preview := sanitized
		if r := []rune(preview); len(r) > 100 {
			preview = string(r[:100])
		}
		for _, p := range others {
			s.notifier.Notify(p.UserID, &userID, models.NotificationTypeMessage, message.ID,
				map[string]interface{}{"conversation_id": conversationID, "preview": preview})
		}
	}

	return &message, nil
}

// DeleteMessage 只有发送者本人能删自己的消息
func (s *MessageService) DeleteMessage(ctx context.Context, messageID, userID string) error {
	var message models.Message
	if err := s.db.WithContext(ctx).First(&message, "id = ?", messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: message %s", ErrNotFound, messageID)
		}
		return fmt.Errorf("load message: %w", err)
	}
	if message.SenderID != userID {
		return fmt.Errorf("%w: can only delete your own messages", ErrForbidden)
	}
	if err := s.db.WithContext(ctx).Delete(&message).Error; err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

// UnreadCount 所有会话里别人发给我的未读消息总数
func (s *MessageService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Message{}).
		Joins("JOIN conversation_participants cp ON cp.conversation_id = messages.conversation_id").
		Where("cp.user_id = ? AND messages.sender_id <> ? AND messages.read = ?", userID, userID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}
