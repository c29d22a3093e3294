package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
server:
  port: 9090
  mode: test
database:
  host: db
  port: 3306
  user: library
  password: secret
  dbname: library
  loc: Asia/Shanghai
redis:
  host: cache
  port: 6379
jwt:
  secret: test-secret
log:
  level: warn
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
	return dir
}

func TestLoadFrom_FileAndDefaults(t *testing.T) {
	dir := writeConfig(t, sampleConfig)

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr())
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 2, cfg.Borrow.DefaultLimit)
	assert.Equal(t, 30*time.Second, cfg.Stats.CacheTTL)
	assert.Equal(t, 2*time.Hour, cfg.JWT.AccessTokenExpire)
	assert.False(t, cfg.MQ.Enabled)
	assert.Equal(t, 5, cfg.MQ.BreakerFailures)
	assert.Equal(t, 30*time.Second, cfg.MQ.BreakerTimeout)
	assert.False(t, cfg.CORS.Enabled)
	assert.Equal(t, 12*time.Hour, cfg.CORS.MaxAge)
	assert.Contains(t, cfg.CORS.AllowHeaders, "Authorization")
	assert.Equal(t, "library:secret@tcp(db:3306)/library?charset=utf8mb4&parseTime=true&loc=Asia%2FShanghai", cfg.Database.DSN())
}

func TestLoadFrom_EnvOverride(t *testing.T) {
	dir := writeConfig(t, sampleConfig)
	t.Setenv("LIBRARY_DATABASE_PASSWORD", "from-env")
	t.Setenv("LIBRARY_BORROW_DEFAULT_LIMIT", "5")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, 5, cfg.Borrow.DefaultLimit)
}

func TestLoadFrom_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"端口非法", "server:\n  port: 70000\n"},
		{"生产环境默认密钥", "server:\n  port: 8080\n  mode: release\njwt:\n  secret: your-secret-key-change-in-production\n"},
		{"借阅上限为负", "server:\n  port: 8080\nborrow:\n  default_limit: -1\n"},
		{"启用MQ但未配置地址", "server:\n  port: 8080\nmq:\n  enabled: true\n"},
		{"携带凭证时允许任意来源", "server:\n  port: 8080\ncors:\n  allow_credentials: true\n  allow_origins: [\"*\"]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadFrom_MissingFile(t *testing.T) {
	_, err := LoadFrom(t.TempDir())
	assert.Error(t, err)
}
