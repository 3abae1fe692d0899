package db

import (
	"log"
	"os"

	"devlink/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		// Fallback for local dev if not set
		dsn = "host=localhost user=postgres password=postgres dbname=devlink port=5432 sslmode=disable"
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		// 把驱动的唯一键冲突翻译成 gorm.ErrDuplicatedKey，toggle 并发依赖这个
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("Database connection established")

	if err := Migrate(DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed")
}

// Migrate 执行建表和索引。测试用 sqlite 跑同一套迁移。
func Migrate(g *gorm.DB) error {
	err := g.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.Post{},
		&models.Interaction{},
		&models.Follow{},
		&models.Notification{},
		&models.Event{},
		&models.Conversation{},
		&models.ConversationParticipant{},
		&models.Message{},
		&models.Mention{},
	)
	if err != nil {
		return err
	}

	// LIKE/BOOKMARK 每个 (post, user) 至多一条；COMMENT 不受限。
	// AutoMigrate 表达不了部分唯一索引，postgres 和 sqlite 都支持这条语法。
	return g.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_interactions_toggle
		ON interactions (post_id, user_id, kind)
		WHERE kind IN ('LIKE', 'BOOKMARK')`).Error
}
