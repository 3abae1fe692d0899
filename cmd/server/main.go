package main

import (
	"log"
	"os"
	"time"

	"devlink/internal/db"
	"devlink/internal/ratelimit"
	"devlink/internal/router"
	"devlink/internal/services"
	"devlink/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}

	// Initialize Database
	db.Init()

	// 异步排名服务：互动触发的增量刷新 + 定时全量刷新
	ranking := services.NewRankingService(db.DB)
	ranking.Start()
	ranking.StartPeriodicRefresh(refreshInterval())

	// Initialize Gin
	r := gin.Default()

	// Setup Sessions
	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		secret = "secret_key_change_me"
	}
	store := cookie.NewStore([]byte(secret))
	r.Use(sessions.Sessions("devlink_session", store))

	// 限流：配了 REDIS_ADDR 用共享计数，否则进程内令牌桶
	var redisClient *redis.Client
	var limiter ratelimit.Limiter
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		limiter = ratelimit.NewRedisLimiter(redisClient, writeLimitPerMinute())
		log.Println("Rate limiting backed by Redis at", addr)
	} else {
		limiter = ratelimit.NewLocalLimiter(writeLimitPerMinute(), 5)
		log.Println("Rate limiting using in-process token buckets")
	}

	router.RegisterRoutes(r, limiter, ranking, redisClient)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server starting on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func refreshInterval() time.Duration {
	ms := utils.StringToInt(os.Getenv("RANK_REFRESH_INTERVAL_MS"))
	if ms <= 0 {
		ms = 3600000 // 默认一小时
	}
	return time.Duration(ms) * time.Millisecond
}

func writeLimitPerMinute() int {
	n := utils.StringToInt(os.Getenv("WRITE_RATE_LIMIT_PER_MINUTE"))
	if n <= 0 {
		n = 20
	}
	return n
}
