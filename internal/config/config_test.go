package config_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jswork01-cmyk/trainning1/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefault 测试默认配置
func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "1Q0grV5mDDwCaRWjAWXSNp6-KQRwe4m9Pa1Lb37Ez0nw", cfg.Sheet.SpreadsheetID)
	assert.Equal(t, "1482171667", cfg.Sheet.InfoGID)
	assert.True(t, cfg.Sheet.AutoSync)
	assert.Equal(t, 30*time.Second, cfg.Sheet.CacheTTL)
	assert.Equal(t, 3, cfg.Outbox.MaxRetries)
	assert.Equal(t, "정심작업장", cfg.Facility.Name)
	assert.Equal(t, 600, cfg.Image.MaxWidth)
	assert.Equal(t, 60, cfg.Image.Quality)
}

// TestLoadConfigFromFile 测试从配置文件加载配置
func TestLoadConfigFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9000
database:
  driver: postgres
  host: db.internal
sheet:
  script_url: "https://script.test/exec"
  cache_ttl: 5s
outbox:
  workers: 4
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := config.Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr())
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "https://script.test/exec", cfg.Sheet.ScriptURL)
	assert.Equal(t, 5*time.Second, cfg.Sheet.CacheTTL)
	assert.Equal(t, 4, cfg.Outbox.Workers)
	// 未设置的字段使用默认值
	assert.Equal(t, 3, cfg.Outbox.MaxRetries)
}

// TestLoadConfigFromEnv 测试从环境变量加载配置
func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("APP_SERVER_PORT", "7070")
	t.Setenv("APP_GENAI_API_KEY", "secret")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "secret", cfg.GenAI.APIKey)
}

// TestLoadConfig_MissingFile 测试配置文件不存在
func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// TestIsProduction 测试环境判断
func TestIsProduction(t *testing.T) {
	assert.False(t, config.IsProduction(nil))
	assert.True(t, config.IsProduction(&config.Config{Env: "production"}))
	assert.False(t, config.IsProduction(&config.Config{Env: "development"}))
}

// TestWatcher_ReloadsOnChange 测试配置文件变更回调
func TestWatcher_ReloadsOnChange(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("log:\n  level: info\n"), 0644))

	cfg, err := config.Load(configPath)
	require.NoError(t, err)

	watcher := config.NewWatcher(cfg, configPath)
	var mu sync.Mutex
	var levels []string
	watcher.OnChange(func(c *config.Config) {
		mu.Lock()
		defer mu.Unlock()
		levels = append(levels, c.Log.Level)
	})
	require.NoError(t, watcher.Start())
	defer watcher.Stop()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(configPath, []byte("log:\n  level: error\n"), 0644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(levels) > 0 && levels[len(levels)-1] == "error"
	}, 2*time.Second, 50*time.Millisecond)
	assert.Eventually(t, func() bool {
		return watcher.Current().Log.Level == "error"
	}, time.Second, 20*time.Millisecond)
}
