package ratelimit

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// LocalLimiter 进程内令牌桶。每个 key 一个桶，桶放在 LRU 里，
// 冷掉的 key 自动被挤出去，不用自己做过期清理。
type LocalLimiter struct {
	mu      sync.Mutex
	buckets *lru.Cache[string, *rate.Limiter]
	limit   rate.Limit
	burst   int
}

// NewLocalLimiter 每个 key 每分钟 perMinute 次，突发上限 burst
func NewLocalLimiter(perMinute int, burst int) *LocalLimiter {
	cache, _ := lru.New[string, *rate.Limiter](10000)
	return &LocalLimiter{
		buckets: cache,
		limit:   rate.Limit(float64(perMinute) / 60.0),
		burst:   burst,
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	bucket, ok := l.buckets.Get(key)
	if !ok {
		bucket = rate.NewLimiter(l.limit, l.burst)
		l.buckets.Add(key, bucket)
	}
	l.mu.Unlock()
	return bucket.Allow(), nil
}
