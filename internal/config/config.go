// Package config loads server configuration from flags, environment variables, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Environments.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Data      DataConfig
	Store     StoreConfig
	Server    ServerConfig
	CORS      CORSConfig
	Render    RenderConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Search    SearchConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// IsDevelopment reports whether the server runs in development mode.
func (a AppConfig) IsDevelopment() bool {
	return a.Environment == EnvDevelopment
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds the on-disk location for the database, search index and keys.
type DataConfig struct {
	Path string
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver string // sqlite (default) or badger
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        // default: 8000
	ReadTimeout  time.Duration // default: 15s
	WriteTimeout time.Duration // default: 15s
	IdleTimeout  time.Duration // default: 60s
}

// CORSConfig holds the single origin allowed to call the API cross-origin.
// Empty means same-origin only and no CORS headers are sent.
type CORSConfig struct {
	AllowedOrigin string
}

// RenderConfig controls the page renderer and how it loads its data.
type RenderConfig struct {
	BuildDir    string // built frontend artifact, default frontend/build
	DevProxyURL string // API base used for page data in development
	PublicURL   string // this server's base URL, for page data fetched over HTTP
	InProcess   bool   // page data may call the API handler directly
	Deferred    bool   // ship empty page data and let the browser fetch
	Watch       bool   // reload the bundle when the build dir changes
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	AccessTokenKey      []byte // set from auth.LoadOrGenerateKey
	AccessTokenDuration time.Duration
	RequireForWrites    bool
	SecureCookies       bool
}

// RateLimitConfig configures the per-client API rate limit.
type RateLimitConfig struct {
	RequestsPerSecond float64 // 0 disables limiting
	Burst             int
}

// SearchConfig toggles the full-text index.
type SearchConfig struct {
	Enabled bool
}

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load parses args and builds a Config with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("catalog-server", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Directory for the database, search index and keys")
	storeDriver := fs.String("store", "", "Store driver (sqlite, badger)")

	serverPort := fs.String("port", "", "Server port (default: 8000)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	corsOrigin := fs.String("cors-origin", "", "Origin allowed to call the API cross-origin")

	renderBuildDir := fs.String("render-build-dir", "", "Built frontend directory (default: frontend/build)")
	renderProxyURL := fs.String("render-dev-proxy", "", "API base URL for page data in development")
	renderDeferred := fs.String("render-deferred", "", "Render pages without data and fetch in the browser")
	renderPublicURL := fs.String("render-public-url", "", "Base URL page data is fetched from when not in process (default: http://localhost:PORT)")

	accessTokenDuration := fs.String("access-token-duration", "", "Access token lifetime (e.g., 24h)")
	requireAuth := fs.String("require-auth-for-writes", "", "Reject unauthenticated API writes")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// A missing .env file is fine.
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", EnvDevelopment),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			Path: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getConfigValue(*storeDriver, "STORE_DRIVER", DriverSQLite)),
		},
		Server: ServerConfig{
			Port: getConfigValue(*serverPort, "SERVER_PORT", "8000"),
		},
		CORS: CORSConfig{
			AllowedOrigin: getConfigValue(*corsOrigin, "CORS_ALLOWED_ORIGIN", ""),
		},
		Render: RenderConfig{
			BuildDir:    getConfigValue(*renderBuildDir, "RENDER_BUILD_DIR", filepath.Join("frontend", "build")),
			DevProxyURL: getConfigValue(*renderProxyURL, "RENDER_DEV_PROXY_URL", "http://localhost:8000"),
			PublicURL:   getConfigValue(*renderPublicURL, "RENDER_PUBLIC_URL", ""),
			InProcess:   getBoolConfigValue("", "RENDER_IN_PROCESS", true),
			Deferred:    getBoolConfigValue(*renderDeferred, "RENDER_DEFERRED", false),
			Watch:       getBoolConfigValue("", "RENDER_WATCH", true),
		},
		Auth: AuthConfig{
			RequireForWrites: getBoolConfigValue(*requireAuth, "AUTH_REQUIRE_FOR_WRITES", false),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getFloatConfigValue("", "RATE_LIMIT_RPS", 20),
			Burst:             getIntConfigValue("", "RATE_LIMIT_BURST", 40),
		},
		Search: SearchConfig{
			Enabled: getBoolConfigValue("", "SEARCH_ENABLED", true),
		},
	}
	cfg.Auth.SecureCookies = cfg.App.Environment == EnvProduction
	if cfg.Render.PublicURL == "" {
		cfg.Render.PublicURL = "http://localhost:" + cfg.Server.Port
	}

	durations := []struct {
		flagValue, envKey, def string
		dst                    *time.Duration
	}{
		{*accessTokenDuration, "ACCESS_TOKEN_DURATION", "24h", &cfg.Auth.AccessTokenDuration},
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", strings.ToLower(d.envKey), raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all config values are present and valid.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case EnvDevelopment, EnvStaging, EnvProduction:
	case "":
		return errors.New("ENV is required")
	default:
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.Path == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	switch c.Store.Driver {
	case DriverSQLite, DriverBadger:
	default:
		return fmt.Errorf("invalid store driver: %s (must be sqlite or badger)", c.Store.Driver)
	}

	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("invalid server port: %s", c.Server.Port)
	}

	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return errors.New("rate limit values must not be negative")
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst == 0 {
		return errors.New("rate limit burst must be positive when a rate is set")
	}

	if c.App.IsDevelopment() && !c.Render.Deferred {
		if u, err := url.Parse(c.Render.DevProxyURL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid render dev proxy url: %q", c.Render.DevProxyURL)
		}
	}
	if u, err := url.Parse(c.Render.PublicURL); c.Render.PublicURL != "" && (err != nil || u.Scheme == "" || u.Host == "") {
		return fmt.Errorf("invalid render public url: %q", c.Render.PublicURL)
	}

	return nil
}

// DatabasePath is where the sqlite database lives.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Data.Path, "catalog.db")
}

// BadgerPath is the badger data directory.
func (c *Config) BadgerPath() string {
	return filepath.Join(c.Data.Path, "badger")
}

// SearchIndexPath is the bleve index directory.
func (c *Config) SearchIndexPath() string {
	return filepath.Join(c.Data.Path, "search.bleve")
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	expanded, err := expandPath(c.Data.Path, filepath.Join(homeDir, "Catalog"))
	if err != nil {
		return err
	}
	c.Data.Path = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue accepts "true", "1", "yes" (case-insensitive) as true.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	switch strings.ToLower(strValue) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads KEY=value lines from a .env file. Variables already set
// in the environment win.
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- operator-supplied config path
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
