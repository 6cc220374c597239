package service

import (
	"path/filepath"
	"testing"

	"github.com/dushixiang/lumen/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB 创建隔离的临时sqlite库并建表。
// 连接数限制为1，sqlite并发写入统一串行化。
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "lumen_test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(
		&models.LLMLog{},
		&models.Session{},
		&models.SessionMessage{},
		&models.AdminUser{},
	)
	require.NoError(t, err)

	return db
}
