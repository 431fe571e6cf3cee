package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedKeys = []string{
	"BOT_TOKEN", "TELEGRAM_TOKEN", "REDIS_HOST", "REDIS_PORT", "REDIS_DB", "REDIS_PASSWORD",
	"POSTGRES_DSN", "POSTGRES_HOST", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
	"ADMIN_USER_IDS", "ADMIN_USER_ID", "SESSION_TTL_HOURS", "BOT_TIMEZONE", "SHEETS_CONFIG",
	"RATE_LIMIT_PER_SEC", "RATE_LIMIT_BURST", "JOURNAL_RETENTION_DAYS",
}

// clearEnv blanks every variable FromEnv reads so the host environment does
// not leak into the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range managedKeys {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "123:abc")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.BotToken)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "sheets_config.json", cfg.CatalogPath)
	assert.Equal(t, "credentials.json", cfg.GoogleCredentialsFile)
	assert.Empty(t, cfg.PostgresDSN)
	assert.Equal(t, 90, cfg.RetentionDays)
	assert.Equal(t, 2.0, cfg.RateLimitPerSec)
	assert.Equal(t, 5, cfg.RateLimitBurst)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "legacy")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("SESSION_TTL_HOURS", "2")
	t.Setenv("ADMIN_USER_IDS", "1, 2;3")
	t.Setenv("ADMIN_USER_ID", "4")
	t.Setenv("BOT_TIMEZONE", "UTC")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_USER", "bot")
	t.Setenv("POSTGRES_PASSWORD", "p@ss:word")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.BotToken)
	assert.Equal(t, "redis:6380", cfg.RedisAddr)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, []int64{1, 2, 3, 4}, cfg.AdminUserIDs)
	assert.True(t, cfg.IsAdmin(4))
	assert.False(t, cfg.IsAdmin(5))
	assert.Equal(t, "UTC", cfg.Location.String())
	assert.Equal(t, "postgres://bot:p%40ss%3Aword@db:5432/sheet_bot?sslmode=disable", cfg.PostgresDSN)
}

func TestFromEnv_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_DB", "zero")
	t.Setenv("ADMIN_USER_IDS", "abc")
	t.Setenv("BOT_TIMEZONE", "Mars/Olympus")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_DB")
	assert.Contains(t, err.Error(), "invalid user id")
	assert.Contains(t, err.Error(), "BOT_TIMEZONE")
}

func TestValidate_RequiresToken(t *testing.T) {
	cfg := &Config{CatalogPath: "x.json"}
	assert.Error(t, cfg.Validate())
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.env")
	require.NoError(t, os.WriteFile(path, []byte("BOT_TOKEN=from-file\nSHEETS_CONFIG=tables.yaml\n"), 0o600))
	t.Setenv("SHEETS_CONFIG", "already-set.json")
	// godotenv only fills variables that are absent, not ones set to "".
	require.NoError(t, os.Unsetenv("BOT_TOKEN"))

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("BOT_TOKEN"))
	assert.Equal(t, "already-set.json", os.Getenv("SHEETS_CONFIG"))

	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
	assert.NoError(t, LoadEnvFile(""))
}
