// Package config defines the top-level configuration for merchantdesk and
// provides validation helpers.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by MERCHANTDESK_* environment variables.
type Config struct {
	Nearpay   NearpayConfig   `toml:"nearpay"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Redis     RedisConfig     `toml:"redis"`
	S3        S3Config        `toml:"s3"`
	Collector CollectorConfig `toml:"collector"`
	Server    ServerConfig    `toml:"server"`
	Reports   ReportsConfig   `toml:"reports"`
	Notify    NotifyConfig    `toml:"notify"`
	Mode      string          `toml:"mode"`
	LogLevel  string          `toml:"log_level"`
}

// NearpayConfig holds the payment transaction API endpoint and credentials.
type NearpayConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	// APIKeyFile is a sealed key written by "deskctl seal-secret", used when
	// APIKey is empty.
	APIKeyFile     string   `toml:"api_key_file"`
	APIKeyPassword string   `toml:"api_key_password"`
	Timeout        duration `toml:"timeout"`
	// RateLimit caps outbound requests per RateWindow across every process
	// sharing the Redis instance. 0 disables throttling.
	RateLimit  int      `toml:"rate_limit"`
	RateWindow duration `toml:"rate_window"`
}

// PostgresConfig holds the directory database connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
	KeyPrefix  string `toml:"key_prefix"`
	// RankingCacheTTL is how long the dashboard may serve a cached ranking.
	// 0 disables the cache.
	RankingCacheTTL duration `toml:"ranking_cache_ttl"`
}

// S3Config holds S3-compatible object storage parameters for report exports.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// CollectorConfig bounds full-scan transaction collection.
type CollectorConfig struct {
	PageSize int `toml:"page_size"`
	MaxPages int `toml:"max_pages"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port           int      `toml:"port"`
	CORSOrigins    []string `toml:"cors_origins"`
	APIKey         string   `toml:"api_key"`
	RequestTimeout duration `toml:"request_timeout"`
	RateLimit      int      `toml:"rate_limit"`
	RateWindow     duration `toml:"rate_window"`
}

// ReportsConfig holds report export parameters.
type ReportsConfig struct {
	Interval duration `toml:"interval"`  // export period in report and full modes
	TopN     int      `toml:"top_n"`     // ranking size of the top-sellers export
	LockTTL  duration `toml:"lock_ttl"`  // upper bound on one export run
	PartSize int64    `toml:"part_size"` // multipart upload part size in bytes
}

// NotifyConfig holds report alert channels. Empty credentials disable a
// channel.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Nearpay: NearpayConfig{
			BaseURL:    "https://api.nearpay.io",
			Timeout:    duration{15 * time.Second},
			RateLimit:  20,
			RateWindow: duration{time.Second},
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "merchantdesk",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:            "localhost:6379",
			PoolSize:        20,
			MaxRetries:      3,
			KeyPrefix:       "merchantdesk:",
			RankingCacheTTL: duration{30 * time.Second},
		},
		S3: S3Config{
			Enabled:        true,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "merchantdesk-reports",
			ForcePathStyle: true,
		},
		Collector: CollectorConfig{
			PageSize: 100,
			MaxPages: 1000,
		},
		Server: ServerConfig{
			Port:           8000,
			CORSOrigins:    []string{"http://localhost:3000", "http://localhost:5173"},
			RequestTimeout: duration{60 * time.Second},
			RateLimit:      120,
			RateWindow:     duration{time.Minute},
		},
		Reports: ReportsConfig{
			Interval: duration{time.Hour},
			TopN:     5,
			LockTTL:  duration{10 * time.Minute},
			PartSize: 8 << 20,
		},
		Notify: NotifyConfig{
			Events: []string{"report_failed", "source_degraded"},
		},
		Mode:     "server",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server": true,
	"report": true,
	"full":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validEvents enumerates the accepted values for NotifyConfig.Events.
var validEvents = map[string]bool{
	"report_exported": true,
	"report_failed":   true,
	"source_degraded": true,
}

// minPartSize is the smallest multipart part S3 accepts.
const minPartSize = 5 << 20

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	mode := strings.ToLower(c.Mode)
	if !validModes[mode] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, report, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Nearpay
	if u, err := url.Parse(c.Nearpay.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("nearpay: base_url must be an absolute URL, got %q", c.Nearpay.BaseURL))
	}
	if c.Nearpay.APIKey == "" && c.Nearpay.APIKeyFile == "" {
		errs = append(errs, "nearpay: api_key or api_key_file must be set")
	}
	if c.Nearpay.APIKey == "" && c.Nearpay.APIKeyFile != "" && c.Nearpay.APIKeyPassword == "" {
		errs = append(errs, "nearpay: api_key_password is required when api_key_file is set")
	}
	if c.Nearpay.Timeout.Duration <= 0 {
		errs = append(errs, "nearpay: timeout must be > 0")
	}
	if c.Nearpay.RateLimit < 0 {
		errs = append(errs, "nearpay: rate_limit must be >= 0")
	}
	if c.Nearpay.RateLimit > 0 && c.Nearpay.RateWindow.Duration <= 0 {
		errs = append(errs, "nearpay: rate_window must be > 0 when rate_limit is set")
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}
	if c.Redis.RankingCacheTTL.Duration < 0 {
		errs = append(errs, "redis: ranking_cache_ttl must be >= 0")
	}

	// S3
	needsS3 := mode == "report" || mode == "full"
	if needsS3 && !c.S3.Enabled {
		errs = append(errs, "s3: must be enabled for mode "+c.Mode)
	}
	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty")
		}
	}

	// Collector
	if c.Collector.PageSize < 1 || c.Collector.PageSize > 500 {
		errs = append(errs, fmt.Sprintf("collector: page_size must be 1-500, got %d", c.Collector.PageSize))
	}
	if c.Collector.MaxPages < 1 {
		errs = append(errs, "collector: max_pages must be >= 1")
	}

	// Server
	if mode == "server" || mode == "full" {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RequestTimeout.Duration <= 0 {
			errs = append(errs, "server: request_timeout must be > 0")
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server: rate_limit must be >= 0")
		}
		if c.Server.RateLimit > 0 && c.Server.RateWindow.Duration <= 0 {
			errs = append(errs, "server: rate_window must be > 0 when rate_limit is set")
		}
	}

	// Reports
	if needsS3 && c.Reports.Interval.Duration <= 0 {
		errs = append(errs, "reports: interval must be > 0")
	}
	if c.Reports.TopN < 1 {
		errs = append(errs, "reports: top_n must be >= 1")
	}
	if c.Reports.LockTTL.Duration <= 0 {
		errs = append(errs, "reports: lock_ttl must be > 0")
	}
	if c.Reports.PartSize < minPartSize {
		errs = append(errs, fmt.Sprintf("reports: part_size must be >= %d bytes", minPartSize))
	}

	// Notify
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}
	for _, e := range c.Notify.Events {
		if !validEvents[strings.TrimSpace(e)] {
			errs = append(errs, fmt.Sprintf("notify: unknown event %q (valid: report_exported, report_failed, source_degraded)", e))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ParseLogLevel maps a log_level value to a slog.Level, defaulting to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
