package ratelimit

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter 固定窗口计数器，多实例共享额度。
// key 形如 rl:<key>:<分钟序号>，INCR 后给窗口设过期。
type RedisLimiter struct {
	client    *redis.Client
	perMinute int64
}

func NewRedisLimiter(client *redis.Client, perMinute int) *RedisLimiter {
	return &RedisLimiter{client: client, perMinute: int64(perMinute)}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	window := time.Now().Unix() / 60
	redisKey := fmt.Sprintf("rl:%s:%d", key, window)

	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		// Redis 不可用时放行，限流挂了不能把整个写路径拖死
		log.Printf("限流计数失败 (key=%s): %v", key, err)
		return true, nil
	}
	if count == 1 {
		// 窗口留两分钟，跨窗口的旧 key 自然过期
		r.client.Expire(ctx, redisKey, 2*time.Minute)
	}
	return count <= r.perMinute, nil
}
