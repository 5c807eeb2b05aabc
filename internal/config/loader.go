package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies MERCHANTDESK_* environment variable overrides,
// and returns the final Config. An empty path skips the file. The returned
// Config has NOT been validated; the caller should invoke Config.Validate()
// after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known MERCHANTDESK_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Nearpay ──
	setStr(&cfg.Nearpay.BaseURL, "MERCHANTDESK_NEARPAY_BASE_URL")
	setStr(&cfg.Nearpay.APIKey, "MERCHANTDESK_NEARPAY_API_KEY")
	setStr(&cfg.Nearpay.APIKeyFile, "MERCHANTDESK_NEARPAY_API_KEY_FILE")
	setStr(&cfg.Nearpay.APIKeyPassword, "MERCHANTDESK_NEARPAY_API_KEY_PASSWORD")
	setDuration(&cfg.Nearpay.Timeout, "MERCHANTDESK_NEARPAY_TIMEOUT")
	setInt(&cfg.Nearpay.RateLimit, "MERCHANTDESK_NEARPAY_RATE_LIMIT")
	setDuration(&cfg.Nearpay.RateWindow, "MERCHANTDESK_NEARPAY_RATE_WINDOW")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "DATABASE_URL") // platform convention; the prefixed name wins
	setStr(&cfg.Postgres.DSN, "MERCHANTDESK_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "MERCHANTDESK_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "MERCHANTDESK_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "MERCHANTDESK_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "MERCHANTDESK_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "MERCHANTDESK_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "MERCHANTDESK_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "MERCHANTDESK_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "MERCHANTDESK_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "MERCHANTDESK_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "MERCHANTDESK_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "MERCHANTDESK_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "MERCHANTDESK_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "MERCHANTDESK_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "MERCHANTDESK_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "MERCHANTDESK_REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.KeyPrefix, "MERCHANTDESK_REDIS_KEY_PREFIX")
	setDuration(&cfg.Redis.RankingCacheTTL, "MERCHANTDESK_REDIS_RANKING_CACHE_TTL")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "MERCHANTDESK_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "MERCHANTDESK_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "MERCHANTDESK_S3_REGION")
	setStr(&cfg.S3.Bucket, "MERCHANTDESK_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "MERCHANTDESK_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "MERCHANTDESK_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "MERCHANTDESK_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "MERCHANTDESK_S3_FORCE_PATH_STYLE")

	// ── Collector ──
	setInt(&cfg.Collector.PageSize, "MERCHANTDESK_COLLECTOR_PAGE_SIZE")
	setInt(&cfg.Collector.MaxPages, "MERCHANTDESK_COLLECTOR_MAX_PAGES")

	// ── Server ──
	setInt(&cfg.Server.Port, "PORT") // platform convention; the prefixed name wins
	setInt(&cfg.Server.Port, "MERCHANTDESK_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "MERCHANTDESK_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "MERCHANTDESK_SERVER_API_KEY")
	setDuration(&cfg.Server.RequestTimeout, "MERCHANTDESK_SERVER_REQUEST_TIMEOUT")
	setInt(&cfg.Server.RateLimit, "MERCHANTDESK_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "MERCHANTDESK_SERVER_RATE_WINDOW")

	// ── Reports ──
	setDuration(&cfg.Reports.Interval, "MERCHANTDESK_REPORTS_INTERVAL")
	setInt(&cfg.Reports.TopN, "MERCHANTDESK_REPORTS_TOP_N")
	setDuration(&cfg.Reports.LockTTL, "MERCHANTDESK_REPORTS_LOCK_TTL")
	setInt64(&cfg.Reports.PartSize, "MERCHANTDESK_REPORTS_PART_SIZE")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "MERCHANTDESK_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "MERCHANTDESK_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "MERCHANTDESK_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "MERCHANTDESK_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "MERCHANTDESK_MODE")
	setStr(&cfg.LogLevel, "MERCHANTDESK_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
