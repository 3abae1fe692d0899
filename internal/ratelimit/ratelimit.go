// Package ratelimit 限制写操作的频率。提供两种实现：
// 单机用令牌桶，多实例部署用 Redis 固定窗口计数。
package ratelimit

import "context"

// Limiter 判断 key 对应的调用方这次请求是否放行
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
