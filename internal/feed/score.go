package feed

import (
	"fmt"
	"time"
)

// ScoreConfig 排名权重。新鲜度和互动各占一块，评论 > 点赞 > 收藏。
type ScoreConfig struct {
	WeightRecency    float64
	WeightEngagement float64
	WeightComment    float64
	WeightLike       float64
	WeightBookmark   float64
	Normalizer       float64 // 把互动项压到和新鲜度同一量级
}

var DefaultScoreConfig = ScoreConfig{
	WeightRecency:    0.6,
	WeightEngagement: 0.4,
	WeightComment:    3.0,
	WeightLike:       2.0,
	WeightBookmark:   1.0,
	Normalizer:       10.0,
}

// Score 计算帖子的排名分。纯函数：同样的输入永远得到同样的输出，
// 排名刷新任务和实时回退路径共用它。
//
// 新鲜度项 1/(1+ageHours) 落在 (0,1]，永远不为零，老帖之间仍可排序；
// 固定互动时越新分越高，固定时间时互动越多分越高。
func Score(createdAt time.Time, likes, comments, bookmarks int64, now time.Time) float64 {
	ageHours := now.Sub(createdAt).Hours()
	if ageHours < 0 {
		ageHours = 0 // 时钟偏差导致的"未来"帖按刚发布算
	}
	cfg := DefaultScoreConfig

	recency := 1.0 / (1.0 + ageHours)
	engagement := (float64(comments)*cfg.WeightComment +
		float64(likes)*cfg.WeightLike +
		float64(bookmarks)*cfg.WeightBookmark) / cfg.Normalizer

	return cfg.WeightRecency*recency + cfg.WeightEngagement*engagement
}

// ScoreSQL 返回和 Score 同一公式的 SQL 表达式，按方言拼接。
// 排名刷新的 UPDATE 和 feed 查询里 rank_score 为 NULL 时的实时回退
// 都用这一个片段，保证两条路径不会各自演化出不同的公式。
//
// 片段里有一个 ? 占位符：调用方绑定"现在"的 unix 秒（float64）。
// 不用数据库的 NOW() 是刻意的——翻页时把这个时刻冻结在 cursor 里，
// 实时回退分在整个翻页会话内保持不变，不然分数随时间衰减会让
// cursor 边界附近的行在下一页重新出现。
// createdCol 是时间戳列，likeExpr/commentExpr/bookmarkExpr 是计数表达式。
//
// score_test.go 里有 Go 实现和 SQL 实现的对账测试。
func ScoreSQL(dialect, createdCol, likeExpr, commentExpr, bookmarkExpr string) string {
	cfg := DefaultScoreConfig

	var ageHours string
	switch dialect {
	case "sqlite":
		ageHours = fmt.Sprintf(
			"MAX((? - CAST(strftime('%%s', %s) AS REAL)) / 3600.0, 0)",
			createdCol)
	default: // postgres
		// EPOCH 提取出来是 numeric，显式转成 double precision：
		// cursor 里带的分数是 float64，谓词的等值分支要求两边同一种精度
		ageHours = fmt.Sprintf(
			"GREATEST((? - CAST(EXTRACT(EPOCH FROM %s) AS DOUBLE PRECISION)) / 3600.0, 0)",
			createdCol)
	}

	return fmt.Sprintf(
		"(%g * (1.0 / (1.0 + %s)) + %g * ((%s * %g + %s * %g + %s * %g) / %g))",
		cfg.WeightRecency, ageHours,
		cfg.WeightEngagement,
		commentExpr, cfg.WeightComment,
		likeExpr, cfg.WeightLike,
		bookmarkExpr, cfg.WeightBookmark,
		cfg.Normalizer,
	)
}
