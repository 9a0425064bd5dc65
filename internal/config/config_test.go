package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("DB_PATH", "")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("ENV", "")
	t.Setenv("RETENTION_TTL", "")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "whereabouts.sqlite", cfg.DBPath)
	assert.Equal(t, BackendSQLite, cfg.StoreBackend)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 7*24*time.Hour, cfg.RetentionTTL)
	assert.Equal(t, "@hourly", cfg.RetentionSchedule)
	assert.InDelta(t, 50.0, cfg.RateLimitRPS, 1e-9)
}

func TestLoadFromEnv_AllVarsSet(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("DB_PATH", "/tmp/test.sqlite")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RATE_LIMIT_RPS", "10")
	t.Setenv("RATE_LIMIT_BURST", "20")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("RETENTION_TTL", "48h")
	t.Setenv("IDENTITY_HEADER", "X-Caller")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/test.sqlite", cfg.DBPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.InDelta(t, 10.0, cfg.RateLimitRPS, 1e-9)
	assert.Equal(t, 20, cfg.RateLimitBurst)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 48*time.Hour, cfg.RetentionTTL)
	assert.Equal(t, "X-Caller", cfg.IdentityHeader)
}

func TestLoadFromEnv_UnknownBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")

	_, err := LoadFromEnv()
	require.Error(t, err)
}

func TestLoadFromEnv_InvalidRetentionTTL(t *testing.T) {
	t.Setenv("RETENTION_TTL", "sometimes")

	_, err := LoadFromEnv()
	require.Error(t, err)
}

func TestLoadFromEnv_InvalidRateLimits(t *testing.T) {
	t.Setenv("RATE_LIMIT_RPS", "fast")

	_, err := LoadFromEnv()
	require.Error(t, err)

	t.Setenv("RATE_LIMIT_RPS", "25")
	t.Setenv("RATE_LIMIT_BURST", "plenty")

	_, err = LoadFromEnv()
	require.Error(t, err)
}

func TestLoadFromEnv_ProductionRejectsCORSWildcard(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	_, err := LoadFromEnv()
	require.Error(t, err)

	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com")
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestSlogLevel(t *testing.T) {
	cases := map[string]string{
		"debug":   "DEBUG",
		"info":    "INFO",
		"warn":    "WARN",
		"warning": "WARN",
		"error":   "ERROR",
		"bogus":   "INFO",
	}
	for level, want := range cases {
		cfg := &Config{LogLevel: level}
		assert.Equal(t, want, cfg.SlogLevel().String(), "level %q", level)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nDOTENV_TEST_A=hello\nDOTENV_TEST_B=\"quoted\"\n\nnot-a-pair\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("DOTENV_TEST_A", "")
	t.Setenv("DOTENV_TEST_B", "")
	require.NoError(t, LoadDotEnv(path))

	assert.Equal(t, "hello", os.Getenv("DOTENV_TEST_A"))
	assert.Equal(t, "quoted", os.Getenv("DOTENV_TEST_B"))
}

func TestLoadDotEnv_EnvTakesPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("DOTENV_TEST_C=from_file\n"), 0o600))

	t.Setenv("DOTENV_TEST_C", "from_env")
	require.NoError(t, LoadDotEnv(path))

	assert.Equal(t, "from_env", os.Getenv("DOTENV_TEST_C"))
}

func TestLoadDotEnv_MissingFileOK(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")))
}
