// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/lovendar/internal/model"
)

// ストアのバックエンド種別。
const (
	StoreBackendBadger = "badger"
	StoreBackendSQL    = "sql"
	StoreBackendMemory = "memory"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Backend API
	APIEnvironment model.APIEnvironment
	APIBaseURL     string // 設定時は環境ごとのベースURLより優先する
	HTTPTimeout    time.Duration

	// Store
	StoreBackend string
	StorePath    string
	DatabaseURL  string

	// Sync
	SyncCron                 string
	SyncHistoryRetentionDays int

	// Server
	ServerPort string

	// Rate Limit
	RateLimitPerMinute int

	// CORS
	CORSAllowedOrigin string

	// Logging
	LogLevel slog.Level

	// Notification
	NotifyWebhookURL string
}

// Load は環境変数からConfigを読み込む。
// 値が不正な場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	var invalid []string

	cfg.APIEnvironment = model.APIEnvironment(getEnvString("LOVENDAR_API_ENV", string(model.APIEnvironmentLocal)))
	if !cfg.APIEnvironment.IsValid() {
		invalid = append(invalid, "LOVENDAR_API_ENV")
	}

	cfg.APIBaseURL = strings.TrimRight(os.Getenv("API_BASE_URL"), "/")
	if cfg.APIBaseURL != "" {
		if u, err := url.Parse(cfg.APIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			invalid = append(invalid, "API_BASE_URL")
		}
	}

	cfg.StoreBackend = getEnvString("STORE_BACKEND", StoreBackendBadger)
	switch cfg.StoreBackend {
	case StoreBackendBadger, StoreBackendSQL, StoreBackendMemory:
	default:
		invalid = append(invalid, "STORE_BACKEND")
	}

	cfg.StorePath = getEnvString("STORE_PATH", "./data/lovendar")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.StoreBackend == StoreBackendSQL && cfg.DatabaseURL == "" {
		invalid = append(invalid, "DATABASE_URL")
	}

	level, ok := parseLogLevel(getEnvString("LOG_LEVEL", "info"))
	if !ok {
		invalid = append(invalid, "LOG_LEVEL")
	}
	cfg.LogLevel = level

	if len(invalid) > 0 {
		return nil, fmt.Errorf("invalid environment variables: %v", invalid)
	}

	// Optional fields with defaults
	cfg.HTTPTimeout = getEnvDuration("HTTP_TIMEOUT", 0)
	cfg.SyncCron = getEnvString("SYNC_CRON", "*/15 * * * *")
	cfg.SyncHistoryRetentionDays = getEnvInt("SYNC_HISTORY_RETENTION_DAYS", 14)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8787")
	cfg.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", 120)
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	cfg.NotifyWebhookURL = getEnvString("NOTIFY_WEBHOOK_URL", "")

	return cfg, nil
}

// BaseURLOverride はAPI_BASE_URLが設定されていればその値を返す。
func (c *Config) BaseURLOverride() (string, bool) {
	return c.APIBaseURL, c.APIBaseURL != ""
}

func parseLogLevel(v string) (slog.Level, bool) {
	switch strings.ToLower(v) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
