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

// RankScheduler 互动变化后把帖子丢进排名刷新队列
type RankScheduler interface {
	ScheduleUpdate(postID string)
}

// Aggregator 维护每个帖子的互动状态：计数、toggle、评论。
// feed 读路径不走这里，它自己在 SQL 里聚合。
type Aggregator struct {
	db        *gorm.DB
	notifier  *Notifier
	scheduler RankScheduler
}

func NewAggregator(db *gorm.DB, notifier *Notifier, scheduler RankScheduler) *Aggregator {
	return &Aggregator{db: db, notifier: notifier, scheduler: scheduler}
}

type InteractionCounts struct {
	Like     int64 `json:"LIKE"`
	Bookmark int64 `json:"BOOKMARK"`
	Comment  int64 `json:"COMMENT"`
}

type UserInteracted struct {
	Liked      bool `json:"liked"`
	Bookmarked bool `json:"bookmarked"`
}

// PostInteractions 帖子详情页的互动汇总
type PostInteractions struct {
	Counts         InteractionCounts    `json:"counts"`
	UserInteracted UserInteracted       `json:"userInteracted"`
	Comments       []models.Interaction `json:"comments"`
}

// Counts 返回单个帖子的各类互动数
func (a *Aggregator) Counts(ctx context.Context, postID string) (InteractionCounts, error) {
	var rows []struct {
		Kind  models.InteractionKind
		Count int64
	}
	err := a.db.WithContext(ctx).Model(&models.Interaction{}).
		Select("kind, COUNT(*) as count").
		Where("post_id = ?", postID).
		Group("kind").
		Scan(&rows).Error
	if err != nil {
		return InteractionCounts{}, fmt.Errorf("count interactions: %w", err)
	}

	var c InteractionCounts
	for _, r := range rows {
		switch r.Kind {
		case models.KindLike:
			c.Like = r.Count
		case models.KindBookmark:
			c.Bookmark = r.Count
		case models.KindComment:
			c.Comment = r.Count
		}
	}
	return c, nil
}

// HasInteracted 当前用户是否赞过/收藏过这个帖子
func (a *Aggregator) HasInteracted(ctx context.Context, postID, userID string) (UserInteracted, error) {
	var rows []models.Interaction
	err := a.db.WithContext(ctx).
		Select("kind").
		Where("post_id = ? AND user_id = ? AND kind IN ?",
			postID, userID, []models.InteractionKind{models.KindLike, models.KindBookmark}).
		Find(&rows).Error
	if err != nil {
		return UserInteracted{}, fmt.Errorf("load user interactions: %w", err)
	}

	var u UserInteracted
	for _, r := range rows {
		switch r.Kind {
		case models.KindLike:
			u.Liked = true
		case models.KindBookmark:
			u.Bookmarked = true
		}
	}
	return u, nil
}

// Toggle 点赞/收藏的开关语义：已存在就删掉（返回 "removed"），
// 不存在就创建（返回 "added"）。评论不走这里。
func (a *Aggregator) Toggle(ctx context.Context, postID, userID string, kind models.InteractionKind) (string, error) {
	if kind != models.KindLike && kind != models.KindBookmark {
		return "", fmt.Errorf("%w: kind %q is not toggleable", ErrInvalidArgument, kind)
	}

	var post models.Post
	if err := a.db.WithContext(ctx).Select("id, author_id").First(&post, "id = ?", postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: post %s", ErrNotFound, postID)
		}
		return "", fmt.Errorf("load post: %w", err)
	}

	var existing models.Interaction
	err := a.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ? AND kind = ?", postID, userID, kind).
		First(&existing).Error
	if err == nil {
		if err := a.db.WithContext(ctx).Delete(&existing).Error; err != nil {
			return "", fmt.Errorf("delete interaction: %w", err)
		}
		a.scheduleRefresh(postID)
		return "removed", nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("check interaction: %w", err)
	}

	return a.addInteraction(ctx, post, userID, kind, "")
}

// addInteraction 创建互动并触发副作用。唯一索引挡下来的并发重复
// （两个请求同时从"未点赞"出发）映射成无操作的成功——对调用方来说
// 状态已经是它想要的样子。
func (a *Aggregator) addInteraction(ctx context.Context, post models.Post, userID string, kind models.InteractionKind, content string) (string, error) {
	interaction := models.Interaction{
		ID:        uuid.NewString(),
		PostID:    post.ID,
		UserID:    userID,
		Kind:      kind,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := a.db.WithContext(ctx).Create(&interaction).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "added", nil
		}
		return "", fmt.Errorf("create interaction: %w", err)
	}

	// 通知是尽力而为，失败不能影响互动写入
	if a.notifier != nil {
		go a.notifier.Notify(post.AuthorID, &userID, models.NotificationType(kind), post.ID, nil)
	}
	a.scheduleRefresh(post.ID)
	return "added", nil
}

// AddComment 评论不 toggle，永远追加。长度检查在消毒之前。
func (a *Aggregator) AddComment(ctx context.Context, postID, userID, content string) (*models.Interaction, error) {
	var post models.Post
	if err := a.db.WithContext(ctx).Select("id, author_id").First(&post, "id = ?", postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: post %s", ErrNotFound, postID)
		}
		return nil, fmt.Errorf("load post: %w", err)
	}

	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: comment content is required", ErrInvalidArgument)
	}

	sanitized, err := SanitizeContent(content)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(sanitized) == "" {
		return nil, fmt.Errorf("%w: comment is empty after sanitization", ErrInvalidArgument)
	}

	interaction := models.Interaction{
		ID:        uuid.NewString(),
		PostID:    post.ID,
		UserID:    userID,
		Kind:      models.KindComment,
		Content:   sanitized,
		CreatedAt: time.Now(),
	}
	if err := a.db.WithContext(ctx).Create(&interaction).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	if a.notifier != nil {
		go a.notifier.Notify(post.AuthorID, &userID, models.NotificationTypeComment, post.ID, nil)
	}
	a.scheduleRefresh(post.ID)
	return &interaction, nil
}

// DeleteInteraction 显式删除。LIKE/BOOKMARK 按 (post, user, kind) 定位；
// COMMENT 必须带 commentID，且只有评论作者本人能删。
func (a *Aggregator) DeleteInteraction(ctx context.Context, postID, userID string, kind models.InteractionKind, commentID string) error {
	switch kind {
	case models.KindLike, models.KindBookmark:
		res := a.db.WithContext(ctx).
			Where("post_id = ? AND user_id = ? AND kind = ?", postID, userID, kind).
			Delete(&models.Interaction{})
		if res.Error != nil {
			return fmt.Errorf("delete interaction: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: interaction", ErrNotFound)
		}
	case models.KindComment:
		if commentID == "" {
			return fmt.Errorf("%w: comment_id is required", ErrInvalidArgument)
		}
		// 非作者删别人的评论一律按不存在处理，不暴露评论归属
		res := a.db.WithContext(ctx).
			Where("id = ? AND post_id = ? AND user_id = ? AND kind = ?",
				commentID, postID, userID, models.KindComment).
			Delete(&models.Interaction{})
		if res.Error != nil {
			return fmt.Errorf("delete comment: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: comment", ErrNotFound)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidArgument, kind)
	}

	a.scheduleRefresh(postID)
	return nil
}

// PostInteractions 详情页一次拿全：计数、当前用户状态、评论列表
func (a *Aggregator) PostInteractions(ctx context.Context, postID, viewerID string) (*PostInteractions, error) {
	var post models.Post
	if err := a.db.WithContext(ctx).Select("id").First(&post, "id = ?", postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: post %s", ErrNotFound, postID)
		}
		return nil, fmt.Errorf("load post: %w", err)
	}

	counts, err := a.Counts(ctx, postID)
	if err != nil {
		return nil, err
	}

	result := &PostInteractions{Counts: counts}

	if viewerID != "" {
		result.UserInteracted, err = a.HasInteracted(ctx, postID, viewerID)
		if err != nil {
			return nil, err
		}
	}

	err = a.db.WithContext(ctx).Preload("User").
		Where("post_id = ? AND kind = ?", postID, models.KindComment).
		Order("created_at DESC, id DESC").
		Find(&result.Comments).Error
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	return result, nil
}

func (a *Aggregator) scheduleRefresh(postID string) {
	if a.scheduler != nil {
		a.scheduler.ScheduleUpdate(postID)
	}
}
