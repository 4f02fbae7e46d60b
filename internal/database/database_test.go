package database_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jswork01-cmyk/trainning1/internal/config"
	"github.com/jswork01-cmyk/trainning1/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOpenMemory 测试内存数据库迁移
func TestOpenMemory(t *testing.T) {
	db, err := database.OpenMemory()
	require.NoError(t, err)
	defer database.Close(db)

	// 所有表都已创建
	for _, table := range []string{"training_logs", "trainees", "jobs", "employees", "settings", "approval_overlays", "outbox", "audit_logs"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, database.CheckHealth(db))
}

// TestConnect_SQLiteFile 测试文件数据库自动创建目录
func TestConnect_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.db")
	db, err := database.Connect(config.DatabaseConfig{Driver: "sqlite", Path: path})
	require.NoError(t, err)
	defer database.Close(db)

	require.NoError(t, database.Migrate(db))
	// 重复迁移应当幂等
	require.NoError(t, database.Migrate(db))
	assert.FileExists(t, path)
}

// TestConnect_UnsupportedDriver 测试不支持的驱动
func TestConnect_UnsupportedDriver(t *testing.T) {
	_, err := database.Connect(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

// TestGetPoolConfig 测试连接池配置
func TestGetPoolConfig(t *testing.T) {
	pool := database.GetPoolConfig(config.DatabaseConfig{Driver: "postgres", MaxOpenConns: 50})
	assert.Equal(t, 50, pool.MaxOpenConns)
	assert.Equal(t, 10, pool.MaxIdleConns)
	assert.Equal(t, 3600, pool.ConnMaxLifetime)

	// SQLite 只使用一个连接
	pool = database.GetPoolConfig(config.DatabaseConfig{Driver: "sqlite", MaxOpenConns: 50})
	assert.Equal(t, 1, pool.MaxOpenConns)
}

// TestBuildDSN 测试 DSN 构建
func TestBuildDSN(t *testing.T) {
	dsn := database.BuildDSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "logs", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=logs sslmode=disable", dsn)
}

// TestConnectWithRetry_Invalid 测试连接失败时返回错误
func TestConnectWithRetry_Invalid(t *testing.T) {
	_, err := database.ConnectWithRetry(config.DatabaseConfig{Driver: "oracle"}, 2, time.Millisecond)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 retries")
}

// TestCheckHealth_Nil 测试空连接
func TestCheckHealth_Nil(t *testing.T) {
	assert.False(t, database.CheckHealth(nil))
}
