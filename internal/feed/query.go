package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"devlink/internal/models"

	"gorm.io/gorm"
)

type Order string

const (
	// OrderChronological 按 (created_at, id) 降序
	OrderChronological Order = "new"
	// OrderRanked 按 (有效分, created_at, id) 降序；有效分优先用预计算的
	// rank_score，还没被刷新任务覆盖的新帖回退到实时计算
	OrderRanked Order = "ranked"
)

const (
	// MaxPageSize 服务端硬上限，不管客户端要多少
	MaxPageSize     = 50
	DefaultPageSize = 20
)

var ErrInvalidLimit = errors.New("limit must be a positive integer")

type PageRequest struct {
	Cursor   string
	Limit    int
	Order    Order
	ViewerID string // 可选，填充 liked/bookmarked
}

type Page struct {
	Items      []models.Post `json:"items"`
	NextCursor *string       `json:"nextCursor"`
}

// Engine 负责 feed 的排序和键集翻页。只读，不持有任何状态——
// 翻页状态全部编码在 cursor 里，中断重试没有副作用。
type Engine struct {
	db *gorm.DB
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// feedRow 帖子本体加上聚合列，一次查询取回
type feedRow struct {
	models.Post
	LikeC     int64
	CommentC  int64
	BookmarkC int64
	EffScore  float64
}

// GetPage 取一页 feed。
//
// 取 limit+1 行探测是否还有下一页，截断到 limit 后用最后一条返回行的
// 排序键编码 nextCursor。cursor 谓词是排序列上的严格小于（字典序），
// 所以并发插入不会造成跨页的重复或遗漏。
func (e *Engine) GetPage(ctx context.Context, req PageRequest) (*Page, error) {
	if req.Limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, req.Limit)
	}
	limit := req.Limit
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	order := req.Order
	if order != OrderChronological {
		order = OrderRanked
	}

	// 坏 cursor 不报错，当第一页处理
	cur := DecodeCursor(req.Cursor)

	// ranked 排序的时钟在第一页冻结，之后每一页都沿用 cursor 里的值，
	// 实时回退分在整个翻页会话内不变（见 ScoreSQL 的说明）
	nowUnix := float64(time.Now().UnixMilli()) / 1000.0
	if cur != nil && cur.SnapshotAt != nil {
		nowUnix = *cur.SnapshotAt
	}

	dialect := e.db.Dialector.Name()
	effExpr := ScoreSQL(dialect, "posts.created_at",
		"COALESCE(ic.like_c, 0)", "COALESCE(ic.comment_c, 0)", "COALESCE(ic.bookmark_c, 0)")
	// 预计算分优先；NULL 的行（新帖、刷新任务还没跑到）实时算同一公式
	effExpr = fmt.Sprintf("COALESCE(posts.rank_score, %s)", effExpr)

	counts := e.db.Table("interactions").
		Select(`post_id,
			SUM(CASE WHEN kind = 'LIKE' THEN 1 ELSE 0 END) AS like_c,
			SUM(CASE WHEN kind = 'COMMENT' THEN 1 ELSE 0 END) AS comment_c,
			SUM(CASE WHEN kind = 'BOOKMARK' THEN 1 ELSE 0 END) AS bookmark_c`).
		Group("post_id")

	q := e.db.WithContext(ctx).Table("posts").
		Joins("LEFT JOIN (?) AS ic ON ic.post_id = posts.id", counts)

	if order == OrderRanked {
		q = q.Select(fmt.Sprintf(`posts.*,
			COALESCE(ic.like_c, 0) AS like_c,
			COALESCE(ic.comment_c, 0) AS comment_c,
			COALESCE(ic.bookmark_c, 0) AS bookmark_c,
			%s AS eff_score`, effExpr), nowUnix)
	} else {
		q = q.Select(`posts.*,
			COALESCE(ic.like_c, 0) AS like_c,
			COALESCE(ic.comment_c, 0) AS comment_c,
			COALESCE(ic.bookmark_c, 0) AS bookmark_c`)
	}

	switch order {
	case OrderChronological:
		if cur != nil {
			q = q.Where(
				"(posts.created_at < ? OR (posts.created_at = ? AND posts.id < ?))",
				cur.CreatedAt, cur.CreatedAt, cur.ID)
		}
		q = q.Order("posts.created_at DESC, posts.id DESC")
	case OrderRanked:
		// chronological 的 cursor 没带分数，对 ranked 排序不可用，从头来
		if cur != nil && cur.RankScore != nil {
			q = q.Where(
				fmt.Sprintf(`(%s < ? OR (%s = ? AND
					(posts.created_at < ? OR (posts.created_at = ? AND posts.id < ?))))`,
					effExpr, effExpr),
				nowUnix, *cur.RankScore,
				nowUnix, *cur.RankScore,
				cur.CreatedAt, cur.CreatedAt, cur.ID)
		}
		q = q.Order("eff_score DESC, posts.created_at DESC, posts.id DESC")
	}

	var rows []feedRow
	if err := q.Limit(limit + 1).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("feed query: %w", err)
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}

	items := make([]models.Post, len(rows))
	for i, r := range rows {
		p := r.Post
		p.LikeCount = r.LikeC
		p.CommentCount = r.CommentC
		p.BookmarkCount = r.BookmarkC
		items[i] = p
	}

	if err := e.fillAuthors(ctx, items); err != nil {
		return nil, err
	}
	if req.ViewerID != "" {
		if err := e.fillViewerFlags(ctx, items, req.ViewerID); err != nil {
			return nil, err
		}
	}

	page := &Page{Items: items}
	if hasMore && len(rows) > 0 {
		last := rows[len(rows)-1]
		c := Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
		if order == OrderRanked {
			s := last.EffScore
			c.RankScore = &s
			c.SnapshotAt = &nowUnix
		}
		enc := EncodeCursor(c)
		page.NextCursor = &enc
	}
	return page, nil
}

// fillAuthors 批量补齐作者信息，避免 N+1
func (e *Engine) fillAuthors(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]string, 0, len(posts))
	seen := make(map[string]bool)
	for _, p := range posts {
		if !seen[p.AuthorID] {
			seen[p.AuthorID] = true
			ids = append(ids, p.AuthorID)
		}
	}

	var users []models.User
	if err := e.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return fmt.Errorf("load authors: %w", err)
	}

	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for i := range posts {
		posts[i].Author = byID[posts[i].AuthorID]
	}
	return nil
}

// fillViewerFlags 一次查询补齐当前用户在这页里点过赞/收藏过哪些帖
func (e *Engine) fillViewerFlags(ctx context.Context, posts []models.Post, viewerID string) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	var rows []models.Interaction
	err := e.db.WithContext(ctx).
		Select("post_id, kind").
		Where("user_id = ? AND post_id IN ? AND kind IN ?",
			viewerID, ids, []models.InteractionKind{models.KindLike, models.KindBookmark}).
		Find(&rows).Error
	if err != nil {
		return fmt.Errorf("load viewer flags: %w", err)
	}

	liked := make(map[string]bool)
	bookmarked := make(map[string]bool)
	for _, r := range rows {
		switch r.Kind {
		case models.KindLike:
			liked[r.PostID] = true
		case models.KindBookmark:
			bookmarked[r.PostID] = true
		}
	}
	for i := range posts {
		posts[i].Liked = liked[posts[i].ID]
		posts[i].Bookmarked = bookmarked[posts[i].ID]
	}
	return nil
}
