package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"devlink/internal/db"
	"devlink/internal/services"
	"devlink/internal/utils"

	"github.com/joho/godotenv"
)

// 独立的排名刷新进程。api 服务自己也会定时刷，
// 多实例部署时可以关掉那边的定时任务，只跑这一个 worker。
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}

	db.Init()
	ranking := services.NewRankingService(db.DB)

	interval := time.Duration(utils.StringToInt(os.Getenv("RANK_REFRESH_INTERVAL_MS"))) * time.Millisecond
	if interval <= 0 {
		interval = time.Hour
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("Rank refresh worker starting, interval %v", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// 启动先刷一轮，别等第一个 tick
	runOnce(ctx, ranking)
	for {
		select {
		case <-ticker.C:
			runOnce(ctx, ranking)
		case <-ctx.Done():
			log.Println("Rank refresh worker shutting down")
			return
		}
	}
}

func runOnce(ctx context.Context, ranking *services.RankingService) {
	start := time.Now()
	n, err := ranking.RefreshAll(ctx)
	if err != nil {
		log.Printf("全量排名刷新失败: %v", err)
		return
	}
	log.Printf("全量排名刷新完成，更新 %d 篇帖子，耗时 %v", n, time.Since(start))
}
