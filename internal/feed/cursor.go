package feed

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// Cursor 是翻页断点：排序键 + 决胜 ID，ranked 排序额外带上分数。
// 对客户端完全不透明，不落库。
type Cursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
	RankScore *float64  `json:"rank_score,omitempty"`
	// ranked 排序的冻结时钟（unix 秒）。实时回退分以它为基准计算，
	// 同一次翻页会话里分数不随壁钟衰减，cursor 边界才稳定。
	SnapshotAt *float64 `json:"snapshot_at,omitempty"`
}

// EncodeCursor 序列化为 URL 安全的 token（JSON + 无填充 base64url），
// 可以直接塞进 query 参数，不需要转义。
func EncodeCursor(c Cursor) string {
	b, _ := json.Marshal(c) // 纯数据结构，marshal 不会失败
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeCursor 解析 token。任何畸形输入都返回 nil 而不是报错，
// 调用方把 nil 当"从头开始"。多余的 JSON 字段忽略，方便将来扩展 cursor 结构。
func DecodeCursor(s string) *Cursor {
	if s == "" {
		return nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		// 兼容带填充的变体
		raw, err = base64.URLEncoding.DecodeString(s)
		if err != nil {
			return nil
		}
	}

	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil
	}
	if c.ID == "" || c.CreatedAt.IsZero() {
		return nil
	}
	return &c
}
