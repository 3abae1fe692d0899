package feed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"devlink/internal/db"
	"devlink/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	g, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := g.DB()
	require.NoError(t, err)
	// :memory: 每个连接是独立库，锁死单连接
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Migrate(g))
	return g
}

func seedUser(t *testing.T, g *gorm.DB, id string) models.User {
	t.Helper()
	u := models.User{ID: id, Handle: "h-" + id, Name: "User " + id}
	require.NoError(t, g.Create(&u).Error)
	return u
}

func seedPost(t *testing.T, g *gorm.DB, id, authorID string, createdAt time.Time, rankScore *float64) models.Post {
	t.Helper()
	p := models.Post{
		ID:        id,
		AuthorID:  authorID,
		Type:      models.PostTypeNote,
		Content:   "post " + id,
		RankScore: rankScore,
		CreatedAt: createdAt,
	}
	require.NoError(t, g.Create(&p).Error)
	return p
}

func collectIDs(p *Page) []string {
	ids := make([]string, len(p.Items))
	for i, it := range p.Items {
		ids[i] = it.ID
	}
	return ids
}

func TestChronologicalPagination(t *testing.T) {
	g := newTestDB(t)
	seedUser(t, g, "u1")
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	// t1 < t2 < t3 < t4 < t5
	for i := 1; i <= 5; i++ {
		seedPost(t, g, fmt.Sprintf("p%d", i), "u1", base.Add(time.Duration(i)*time.Hour), nil)
	}

	e := NewEngine(g)
	ctx := context.Background()

	page1, err := e.GetPage(ctx, PageRequest{Limit: 2, Order: OrderChronological})
	require.NoError(t, err)
	assert.Equal(t, []string{"p5", "p4"}, collectIDs(page1))
	require.NotNil(t, page1.NextCursor)

	// cursor 编码的是最后一条返回行 (t4, p4) 的排序键
	cur := DecodeCursor(*page1.NextCursor)
	require.NotNil(t, cur)
	assert.Equal(t, "p4", cur.ID)
	assert.True(t, cur.CreatedAt.Equal(base.Add(4*time.Hour)))

	page2, err := e.GetPage(ctx, PageRequest{Limit: 2, Order: OrderChronological, Cursor: *page1.NextCursor})
	require.NoError(t, err)
	assert.Equal(t, []string{"p3", "p2"}, collectIDs(page2))
	require.NotNil(t, page2.NextCursor)

	page3, err := e.GetPage(ctx, PageRequest{Limit: 2, Order: OrderChronological, Cursor: *page2.NextCursor})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, collectIDs(page3))
	assert.Nil(t, page3.NextCursor, "最后一页 nextCursor 必须是 null")
}

func TestPaginationNoDuplicatesNoSkipsOnTies(t *testing.T) {
	g := newTestDB(t)
	seedUser(t, g, "u1")
	ts := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	// 同一时间戳的帖子靠 id 决胜，逐条翻页不重不漏
	for _, id := range []string{"a", "b", "c", "d"} {
		seedPost(t, g, id, "u1", ts, nil)
	}

	e := NewEngine(g)
	var got []string
	cursor := ""
	for i := 0; i < 10; i++ {
		page, err := e.GetPage(context.Background(), PageRequest{Limit: 1, Order: OrderChronological, Cursor: cursor})
		require.NoError(t, err)
		got = append(got, collectIDs(page)...)
		if page.NextCursor == nil {
			break
		}
		cursor = *page.NextCursor
	}
	assert.Equal(t, []string{"d", "c", "b", "a"}, got)
}

func TestRankedPaginationPartition(t *testing.T) {
	g := newTestDB(t)
	seedUser(t, g, "u1")
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	score := func(v float64) *float64 { return &v }
	// 有预计算分的、同分的、还没被刷新任务覆盖的（NULL，走实时回退）混在一起
	seedPost(t, g, "r1", "u1", base.Add(1*time.Hour), score(0.9))
	seedPost(t, g, "r2", "u1", base.Add(2*time.Hour), score(0.8))
	seedPost(t, g, "r3", "u1", base.Add(3*time.Hour), score(0.7))
	seedPost(t, g, "r4", "u1", base.Add(4*time.Hour), score(0.7)) // 和 r3 同分
	seedPost(t, g, "r5", "u1", base.Add(5*time.Hour), score(0.5))
	seedPost(t, g, "n1", "u1", base.Add(6*time.Hour), nil)
	seedPost(t, g, "n2", "u1", base.Add(7*time.Hour), nil)
	seedPost(t, g, "n3", "u1", base.Add(8*time.Hour), nil)

	e := NewEngine(g)
	seen := make(map[string]int)
	var order []string
	cursor := ""
	for i := 0; i < 10; i++ {
		page, err := e.GetPage(context.Background(), PageRequest{Limit: 3, Order: OrderRanked, Cursor: cursor})
		require.NoError(t, err)
		for _, id := range collectIDs(page) {
			seen[id]++
			order = append(order, id)
		}
		if page.NextCursor == nil {
			break
		}
		cursor = *page.NextCursor
	}

	// 所有页的并集恰好是全集的一个不重叠划分
	assert.Len(t, seen, 8)
	for id, n := range seen {
		assert.Equal(t, 1, n, "post %s 出现了 %d 次", id, n)
	}

	// 同分靠 created_at 决胜：r4 比 r3 新，排前面
	idxOf := func(id string) int {
		for i, v := range order {
			if v == id {
				return i
			}
		}
		return -1
	}
	assert.Less(t, idxOf("r4"), idxOf("r3"))
	assert.Less(t, idxOf("r1"), idxOf("r2"))
}

func TestConcurrentInsertDoesNotDuplicateOrSkip(t *testing.T) {
	g := newTestDB(t)
	seedUser(t, g, "u1")
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	for i := 1; i <= 4; i++ {
		seedPost(t, g, fmt.Sprintf("p%d", i), "u1", base.Add(time.Duration(i)*time.Hour), nil)
	}

	e := NewEngine(g)
	ctx := context.Background()

	page1, err := e.GetPage(ctx, PageRequest{Limit: 2, Order: OrderChronological})
	require.NoError(t, err)
	assert.Equal(t, []string{"p4", "p3"}, collectIDs(page1))
	require.NotNil(t, page1.NextCursor)

	// 第一页取完之后有并发写入：
	// newer 排在 cursor 之前，后续页不能把它翻出来（也就不会重复）；
	// older 排在 cursor 之后，后续页必须恰好出现一次（不会被跳过）。
	seedPost(t, g, "newer", "u1", base.Add(10*time.Hour), nil)
	seedPost(t, g, "older", "u1", base.Add(90*time.Minute), nil)

	var rest []string
	cursor := *page1.NextCursor
	for i := 0; i < 10; i++ {
		page, err := e.GetPage(ctx, PageRequest{Limit: 2, Order: OrderChronological, Cursor: cursor})
		require.NoError(t, err)
		rest = append(rest, collectIDs(page)...)
		if page.NextCursor == nil {
			break
		}
		cursor = *page.NextCursor
	}

	assert.Equal(t, []string{"p2", "older", "p1"}, rest)
	assert.NotContains(t, rest, "newer")
}

func TestLimitClamp(t *testing.T) {
	g := newTestDB(t)
	seedUser(t, g, "u1")
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		seedPost(t, g, fmt.Sprintf("p%02d", i), "u1", base.Add(time.Duration(i)*time.Minute), nil)
	}

	e := NewEngine(g)
	page, err := e.GetPage(context.Background(), PageRequest{Limit: 1000, Order: OrderChronological})
	require.NoError(t, err)
	assert.Len(t, page.Items, MaxPageSize)
	assert.NotNil(t, page.NextCursor)
}

func TestInvalidLimitRejected(t *testing.T) {
	e := NewEngine(newTestDB(t))
	for _, limit := range []int{0, -5} {
		_, err := e.GetPage(context.Background(), PageRequest{Limit: limit})
		assert.ErrorIs(t, err, ErrInvalidLimit, "limit=%d", limit)
	}
}

func TestMalformedCursorFallsBackToFirstPage(t *testing.T) {
	g := newTestDB(t)
	seedUser(t, g, "u1")
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	seedPost(t, g, "p1", "u1", base, nil)
	seedPost(t, g, "p2", "u1", base.Add(time.Hour), nil)

	e := NewEngine(g)
	first, err := e.GetPage(context.Background(), PageRequest{Limit: 10, Order: OrderChronological})
	require.NoError(t, err)

	// 坏 cursor 不是客户端错误，降级为第一页
	broken, err := e.GetPage(context.Background(), PageRequest{Limit: 10, Order: OrderChronological, Cursor: "%%%not-a-cursor%%%"})
	require.NoError(t, err)
	assert.Equal(t, collectIDs(first), collectIDs(broken))
}

func TestPageEnrichment(t *testing.T) {
	g := newTestDB(t)
	author := seedUser(t, g, "author")
	viewer := seedUser(t, g, "viewer")
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	seedPost(t, g, "p1", author.ID, base, nil)
	seedPost(t, g, "p2", author.ID, base.Add(time.Hour), nil)

	mk := func(id, post string, kind models.InteractionKind) {
		require.NoError(t, g.Create(&models.Interaction{ID: id, PostID: post, UserID: viewer.ID, Kind: kind}).Error)
	}
	mk("i1", "p1", models.KindLike)
	mk("i2", "p1", models.KindComment)
	mk("i3", "p2", models.KindBookmark)

	e := NewEngine(g)
	page, err := e.GetPage(context.Background(), PageRequest{Limit: 10, Order: OrderChronological, ViewerID: viewer.ID})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)

	p2, p1 := page.Items[0], page.Items[1]
	assert.Equal(t, "h-author", p1.Author.Handle)

	assert.Equal(t, int64(1), p1.LikeCount)
	assert.Equal(t, int64(1), p1.CommentCount)
	assert.Equal(t, int64(0), p1.BookmarkCount)
	assert.True(t, p1.Liked)
	assert.False(t, p1.Bookmarked)

	assert.Equal(t, int64(1), p2.BookmarkCount)
	assert.True(t, p2.Bookmarked)
	assert.False(t, p2.Liked)
}

func TestEmptyFeed(t *testing.T) {
	e := NewEngine(newTestDB(t))
	page, err := e.GetPage(context.Background(), PageRequest{Limit: 10, Order: OrderRanked})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Nil(t, page.NextCursor)
}
