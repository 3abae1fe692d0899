package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"devlink/internal/feed"
	"devlink/internal/models"

	"gorm.io/gorm"
)

// RankingService 负责把 rank_score 写回 posts 表。它是这一列唯一的
// 写入方：请求路径只读，避免每次读都放大出一次写。
//
// 两条刷新路径：
//   - ScheduleUpdate：互动发生后把帖子塞进去重队列，后台批量刷，
//     让热帖的分数不用等整点任务
//   - StartPeriodicRefresh：按固定间隔全量刷一遍，兜住队列漏掉的
type RankingService struct {
	db      *gorm.DB
	queue   chan string // 待刷新的帖子 ID 队列
	pending map[string]bool
	mu      sync.Mutex
}

func NewRankingService(db *gorm.DB) *RankingService {
	return &RankingService{
		db:      db,
		queue:   make(chan string, 1000), // 缓冲队列，防止阻塞请求路径
		pending: make(map[string]bool),
	}
}

// Start 启动后台 worker
func (s *RankingService) Start() {
	go s.worker()
}

// ScheduleUpdate 把帖子加入刷新队列（异步）。
// 去重：短时间内同一帖子只算一次。
func (s *RankingService) ScheduleUpdate(postID string) {
	s.mu.Lock()
	if s.pending[postID] {
		s.mu.Unlock()
		return
	}
	s.pending[postID] = true
	s.mu.Unlock()

	select {
	case s.queue <- postID:
	default:
		// 队列满了，放弃这次刷新，整点的全量任务会补上
		s.mu.Lock()
		delete(s.pending, postID)
		s.mu.Unlock()
		log.Printf("排名刷新队列已满，跳过帖子 %s", postID)
	}
}

// worker 批量消费队列
func (s *RankingService) worker() {
	batch := make([]string, 0, 50)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case postID := <-s.queue:
			batch = append(batch, postID)
			if len(batch) >= 50 {
				s.processBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.processBatch(batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *RankingService) processBatch(postIDs []string) {
	for _, postID := range postIDs {
		if err := s.RefreshPost(postID); err != nil {
			log.Printf("刷新帖子 %s 分数失败: %v", postID, err)
		}

		s.mu.Lock()
		delete(s.pending, postID)
		s.mu.Unlock()
	}
}

// RefreshPost 重算并写回单个帖子的分数
func (s *RankingService) RefreshPost(postID string) error {
	var post models.Post
	if err := s.db.First(&post, "id = ?", postID).Error; err != nil {
		return fmt.Errorf("load post: %w", err)
	}

	var likes, comments, bookmarks int64
	s.db.Model(&models.Interaction{}).Where("post_id = ? AND kind = ?", postID, models.KindLike).Count(&likes)
	s.db.Model(&models.Interaction{}).Where("post_id = ? AND kind = ?", postID, models.KindComment).Count(&comments)
	s.db.Model(&models.Interaction{}).Where("post_id = ? AND kind = ?", postID, models.KindBookmark).Count(&bookmarks)

	score := feed.Score(post.CreatedAt, likes, comments, bookmarks, time.Now())

	if err := s.db.Model(&post).UpdateColumn("rank_score", score).Error; err != nil {
		return fmt.Errorf("update rank_score: %w", err)
	}
	return nil
}

// RefreshAll 全量重算。一条 UPDATE 搞定，公式用 feed.ScoreSQL——
// 和查询路径的实时回退是同一个片段，两边永远算同一个数。
func (s *RankingService) RefreshAll(ctx context.Context) (int64, error) {
	countSub := func(kind models.InteractionKind) string {
		return fmt.Sprintf("(SELECT COUNT(*) FROM interactions WHERE interactions.post_id = posts.id AND interactions.kind = '%s')", kind)
	}
	expr := feed.ScoreSQL(s.db.Dialector.Name(), "posts.created_at",
		countSub(models.KindLike), countSub(models.KindComment), countSub(models.KindBookmark))

	nowUnix := float64(time.Now().UnixMilli()) / 1000.0
	res := s.db.WithContext(ctx).Exec("UPDATE posts SET rank_score = "+expr, nowUnix)
	if res.Error != nil {
		return 0, fmt.Errorf("refresh rank scores: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// StartPeriodicRefresh 按固定间隔全量刷新。feed 读路径要能容忍
// 分数落后真实互动至多一个间隔。
func (s *RankingService) StartPeriodicRefresh(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			start := time.Now()
			n, err := s.RefreshAll(context.Background())
			if err != nil {
				log.Printf("定时排名刷新失败: %v", err)
				continue
			}
			log.Printf("定时排名刷新完成，更新 %d 篇帖子，耗时 %v", n, time.Since(start))
		}
	}()
}
