package router

import (
	"devlink/internal/db"
	"devlink/internal/feed"
	"devlink/internal/handlers"
	"devlink/internal/middleware"
	"devlink/internal/ratelimit"
	"devlink/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(r *gin.Engine, limiter ratelimit.Limiter, ranking *services.RankingService, redisClient *redis.Client) {
	// Services
	notifier := services.NewNotifier(db.DB)
	events := services.NewEventLogger(db.DB)
	aggregator := services.NewAggregator(db.DB, notifier, ranking)
	mentions := services.NewMentionService(db.DB, notifier)
	messages := services.NewMessageService(db.DB, notifier)
	engine := feed.NewEngine(db.DB)

	// Handlers
	feedHandler := handlers.NewFeedHandler(engine, events)
	postHandler := handlers.NewPostHandler(aggregator, events, mentions)
	interactionHandler := handlers.NewInteractionHandler(aggregator, mentions)
	userHandler := handlers.NewUserHandler(notifier, events)
	projectHandler := handlers.NewProjectHandler()
	notificationHandler := handlers.NewNotificationHandler()
	messageHandler := handlers.NewMessageHandler(messages)
	mentionHandler := handlers.NewMentionHandler(mentions)
	healthHandler := handlers.NewHealthHandler(redisClient)

	r.Use(middleware.LoadUser())

	// 公共路由 (Public Routes)
	r.GET("/health", healthHandler.Check)                           // 存活探针
	r.GET("/feed", feedHandler.List)                                // feed 列表
	r.GET("/posts/:id", postHandler.Detail)                         // 帖子详情
	r.GET("/posts/:id/interactions", interactionHandler.List)       // 互动汇总
	r.GET("/u/:handle", userHandler.Profile)                        // 用户主页
	r.GET("/users/:id/followers", userHandler.Followers)            // 粉丝列表
	r.GET("/users/:id/following", userHandler.Following)            // 关注列表
	r.GET("/users/:id/projects", projectHandler.ListByUser)         // 用户的项目
	r.GET("/projects/:id", projectHandler.Get)                      // 项目详情

	// 受保护路由 (Protected Routes)，写操作走限流
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		limited := authorized.Group("/")
		limited.Use(middleware.RateLimit(limiter))
		{
			limited.POST("/posts", postHandler.Create)                         // 发帖
			limited.POST("/posts/:id/like", interactionHandler.Like)           // 点赞/取消点赞
			limited.POST("/posts/:id/bookmark", interactionHandler.Bookmark)   // 收藏/取消收藏
			limited.POST("/posts/:id/comments", interactionHandler.Comment)    // 发表评论
			limited.POST("/users/:id/follow", userHandler.Follow)              // 关注/取关
			limited.POST("/projects", projectHandler.Create)                   // 创建项目
			limited.POST("/conversations", messageHandler.Open)                // 开私信会话
			limited.POST("/conversations/:id/messages", messageHandler.Send)   // 发私信
		}

		authorized.DELETE("/posts/:id", postHandler.Delete)                           // 删帖
		authorized.DELETE("/posts/:id/like", interactionHandler.Unlike)               // 显式取消点赞
		authorized.DELETE("/posts/:id/bookmark", interactionHandler.Unbookmark)       // 显式取消收藏
		authorized.DELETE("/posts/:id/comments/:cid", interactionHandler.DeleteComment) // 删除评论

		authorized.GET("/notifications", notificationHandler.List)                   // 我的通知
		authorized.GET("/notifications/unread-count", notificationHandler.UnreadCount) // 未读数
		authorized.POST("/notifications/:id/read", notificationHandler.Read)         // 标记单条已读
		authorized.POST("/notifications/read-all", notificationHandler.ReadAll)      // 全部标记已读

		authorized.GET("/conversations", messageHandler.Conversations)           // 会话列表
		authorized.GET("/conversations/:id/messages", messageHandler.Messages)   // 会话消息
		authorized.DELETE("/messages/:id", messageHandler.Delete)                // 删自己的消息
		authorized.GET("/messages/unread-count", messageHandler.UnreadCount)     // 未读私信数
		authorized.GET("/mentions", mentionHandler.List)                         // 我被 @ 的记录
		authorized.GET("/mentions/search", mentionHandler.Search)                // @ 自动补全
	}
}
