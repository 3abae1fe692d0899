package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func migratedDB(t *testing.T) *gorm.DB {
	t.Helper()
	g, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := g.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, Migrate(g))
	return g
}

// feed 的键集翻页靠 (created_at, id) 复合索引，两列都得在
func TestMigrateBuildsCompositeFeedIndex(t *testing.T) {
	g := migratedDB(t)

	var cols []struct {
		Name string
	}
	err := g.Raw(`SELECT name FROM pragma_index_info('idx_posts_created_id') ORDER BY seqno`).
		Scan(&cols).Error
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "created_at", cols[0].Name)
	assert.Equal(t, "id", cols[1].Name)
}

func TestMigrateBuildsPartialToggleIndex(t *testing.T) {
	g := migratedDB(t)

	var sql string
	err := g.Raw(`SELECT sql FROM sqlite_master WHERE type = 'index' AND name = 'idx_interactions_toggle'`).
		Scan(&sql).Error
	require.NoError(t, err)
	assert.Contains(t, sql, "UNIQUE")
	assert.Contains(t, sql, "WHERE")
}
