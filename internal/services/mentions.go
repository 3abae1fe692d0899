package services

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"devlink/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// MentionService 解析正文里的 @handle，落 mention 记录并通知被 @ 的人。
// 发帖和评论路径都走这里，失败只记日志，不影响内容写入。
type MentionService struct {
	db       *gorm.DB
	notifier *Notifier
}

func NewMentionService(db *gorm.DB, notifier *Notifier) *MentionService {
	return &MentionService{db: db, notifier: notifier}
}

// ExtractMentions 提取去重后的 handle 列表（不带 @）
func ExtractMentions(content string) []string {
	seen := make(map[string]bool)
	var handles []string
	for _, m := range mentionPattern.FindAllStringSubmatch(content, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			handles = append(handles, m[1])
		}
	}
	return handles
}

// CreatePostMentions 处理帖子正文里的 @。@ 自己不算。
func (s *MentionService) CreatePostMentions(ctx context.Context, postID, content, createdByID string) ([]models.Mention, error) {
	return s.create(ctx, &postID, nil, postID, content, createdByID)
}

// CreateCommentMentions 处理评论里的 @，通知引用评论所在的帖子
func (s *MentionService) CreateCommentMentions(ctx context.Context, commentID, postID, content, createdByID string) ([]models.Mention, error) {
	return s.create(ctx, nil, &commentID, postID, content, createdByID)
}

func (s *MentionService) create(ctx context.Context, postID, commentID *string, refID, content, createdByID string) ([]models.Mention, error) {
	handles := ExtractMentions(content)
	if len(handles) == 0 {
		return nil, nil
	}

	// 不存在的 handle 静默忽略，@ 自己跳过
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("handle IN ? AND id <> ?", handles, createdByID).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("resolve mentioned users: %w", err)
	}

	mentions := make([]models.Mention, 0, len(users))
	for _, u := range users {
		mention := models.Mention{
			ID:              uuid.NewString(),
			PostID:          postID,
			CommentID:       commentID,
			MentionedUserID: u.ID,
			CreatedByID:     createdByID,
			CreatedAt:       time.Now(),
		}
		if err := s.db.WithContext(ctx).Create(&mention).Error; err != nil {
			return mentions, fmt.Errorf("create mention: %w", err)
		}

		s.notifier.Notify(u.ID, &createdByID, models.NotificationTypeMention, refID,
			map[string]interface{}{"post_id": refID})
		mentions = append(mentions, mention)
	}
	return mentions, nil
}

// UserMentions 我被 @ 的记录，新的在前
func (s *MentionService) UserMentions(ctx context.Context, userID string, limit int) ([]models.Mention, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	var mentions []models.Mention
	err := s.db.WithContext(ctx).Preload("Post").Preload("Post.Author").Preload("CreatedBy").
		Where("mentioned_user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&mentions).Error
	if err != nil {
		return nil, fmt.Errorf("load mentions: %w", err)
	}
	return mentions, nil
}

// SearchUsers @ 自动补全：按 handle 或名字前缀模糊找人。
// 少于 2 个字符不查，避免全表扫。
func (s *MentionService) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	if len(query) < 2 {
		return []models.User{}, nil
	}
	if limit <= 0 || limit > 25 {
		limit = 10
	}

	pattern := "%" + query + "%"
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("handle LIKE ? OR name LIKE ?", pattern, pattern).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return users, nil
}
