package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:       AppConfig{Environment: EnvDevelopment},
		Logger:    LoggerConfig{Level: "info"},
		Data:      DataConfig{Path: "/var/lib/catalog"},
		Store:     StoreConfig{Driver: DriverSQLite},
		Server:    ServerConfig{Port: "8000"},
		Render:    RenderConfig{DevProxyURL: "http://localhost:8000"},
		RateLimit: RateLimitConfig{RequestsPerSecond: 10, Burst: 20},
	}
}

func noEnvFile(t *testing.T) string {
	t.Helper()
	return "-env-file=" + filepath.Join(t.TempDir(), "missing.env")
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty env", func(c *Config) { c.App.Environment = "" }},
		{"unknown env", func(c *Config) { c.App.Environment = "test" }},
		{"env is case sensitive", func(c *Config) { c.App.Environment = "DEVELOPMENT" }},
		{"bad level", func(c *Config) { c.Logger.Level = "trace" }},
		{"empty data path", func(c *Config) { c.Data.Path = "" }},
		{"bad driver", func(c *Config) { c.Store.Driver = "postgres" }},
		{"bad port", func(c *Config) { c.Server.Port = "http" }},
		{"negative rate", func(c *Config) { c.RateLimit.RequestsPerSecond = -1 }},
		{"rate without burst", func(c *Config) { c.RateLimit.Burst = 0 }},
		{"dev proxy without host", func(c *Config) { c.Render.DevProxyURL = "localhost" }},
		{"public url without scheme", func(c *Config) { c.Render.PublicURL = "catalog.example.com" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_DeferredSkipsProxyCheck(t *testing.T) {
	cfg := validConfig()
	cfg.Render.DevProxyURL = ""
	cfg.Render.Deferred = true

	assert.NoError(t, cfg.Validate())
}

func TestLoad_Defaults(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("DATA_PATH", dataDir)

	cfg, err := Load([]string{noEnvFile(t)})
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Auth.AccessTokenDuration)
	assert.Empty(t, cfg.CORS.AllowedOrigin)
	assert.True(t, cfg.Render.InProcess)
	assert.False(t, cfg.Render.Deferred)
	assert.False(t, cfg.Auth.SecureCookies)
	assert.Equal(t, "http://localhost:8000", cfg.Render.PublicURL)
	assert.Equal(t, filepath.Join(dataDir, "catalog.db"), cfg.DatabasePath())
}

func TestLoad_FlagsBeatEnv(t *testing.T) {
	t.Setenv("DATA_PATH", t.TempDir())
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("STORE_DRIVER", "badger")

	cfg, err := Load([]string{noEnvFile(t), "-port", "9100"})
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, DriverBadger, cfg.Store.Driver)
	assert.Equal(t, "http://localhost:9100", cfg.Render.PublicURL)
}

func TestLoad_PublicURL(t *testing.T) {
	t.Setenv("DATA_PATH", t.TempDir())

	cfg, err := Load([]string{noEnvFile(t), "-render-public-url", "https://catalog.example.com"})
	require.NoError(t, err)
	assert.Equal(t, "https://catalog.example.com", cfg.Render.PublicURL)
}

func TestLoad_EnvFile(t *testing.T) {
	t.Setenv("DATA_PATH", t.TempDir())
	envPath := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nCORS_ALLOWED_ORIGIN=\"http://localhost:5173\"\nENV=production\n"
	require.NoError(t, os.WriteFile(envPath, []byte(content), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("CORS_ALLOWED_ORIGIN")
		os.Unsetenv("ENV")
	})

	cfg, err := Load([]string{"-env-file", envPath})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5173", cfg.CORS.AllowedOrigin)
	assert.Equal(t, EnvProduction, cfg.App.Environment)
	assert.True(t, cfg.Auth.SecureCookies)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("DATA_PATH", t.TempDir())

	_, err := Load([]string{noEnvFile(t), "-read-timeout", "soon"})
	assert.ErrorContains(t, err, "server_read_timeout")
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/catalog", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "catalog"), got)

	got, err = expandPath("", "/default")
	require.NoError(t, err)
	assert.Equal(t, "/default", got)
}

func TestGetBoolConfigValue(t *testing.T) {
	t.Setenv("CATALOG_TEST_BOOL", "YES")
	assert.True(t, getBoolConfigValue("", "CATALOG_TEST_BOOL", false))
	assert.False(t, getBoolConfigValue("off", "CATALOG_TEST_BOOL", true))
	assert.True(t, getBoolConfigValue("", "CATALOG_TEST_UNSET", true))
}
