package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/alanyoungcy/merchantdesk/internal/blob/s3"
	"github.com/alanyoungcy/merchantdesk/internal/cache/redis"
	"github.com/alanyoungcy/merchantdesk/internal/config"
	"github.com/alanyoungcy/merchantdesk/internal/domain"
	"github.com/alanyoungcy/merchantdesk/internal/notify"
	"github.com/alanyoungcy/merchantdesk/internal/platform/nearpay"
	"github.com/alanyoungcy/merchantdesk/internal/reconcile"
	"github.com/alanyoungcy/merchantdesk/internal/secret"
	"github.com/alanyoungcy/merchantdesk/internal/service"
	"github.com/alanyoungcy/merchantdesk/internal/store/postgres"
)

// Dependencies bundles every concrete backend the application modes need.
// It is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Postgres *postgres.Client
	Redis    *redis.Client
	S3       *s3blob.Client // nil when object storage is disabled

	// Ports
	Directory    domain.Directory
	Source       domain.TransactionSource
	AuditLog     domain.AuditLog
	RateLimiter  domain.RateLimiter
	LockManager  domain.LockManager
	RankingCache domain.RankingCache

	// Report storage, nil when object storage is disabled.
	Reports *s3blob.ReportArchiver

	// Notifier is never nil; it drops alerts when no channel is configured.
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	apiKey, err := secret.Resolve(secret.Source{
		Value:    cfg.Nearpay.APIKey,
		File:     cfg.Nearpay.APIKeyFile,
		Password: cfg.Nearpay.APIKeyPassword,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("wire: nearpay api key: %w", err)
	}

	// --- PostgreSQL directory ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	deps.Postgres = pgClient
	deps.Directory = postgres.NewDirectory(pgClient.Pool())
	deps.AuditLog = postgres.NewAuditStore(pgClient.Pool())

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
		KeyPrefix:  cfg.Redis.KeyPrefix,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.Redis = redisClient
	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.LockManager = redis.NewLockManager(redisClient)
	deps.RankingCache = redis.NewRankingCache(redisClient)

	// --- Payment transaction API ---
	deps.Source = nearpay.NewClient(nearpay.Config{
		BaseURL:    cfg.Nearpay.BaseURL,
		APIKey:     apiKey,
		Timeout:    cfg.Nearpay.Timeout.Duration,
		RateLimit:  cfg.Nearpay.RateLimit,
		RateWindow: cfg.Nearpay.RateWindow.Duration,
	}, deps.RateLimiter)

	// --- S3 report storage ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.S3 = s3Client
		deps.Reports = s3blob.NewReportArchiver(
			s3blob.NewWriter(s3Client),
			s3blob.NewReader(s3Client),
			deps.AuditLog,
			cfg.Reports.PartSize,
		)
	}

	deps.Notifier = newNotifier(cfg.Notify, logger)

	logger.InfoContext(ctx, "dependencies wired",
		slog.Bool("s3", deps.S3 != nil),
		slog.Bool("alerts", deps.Notifier.Enabled()),
		slog.Int("nearpay_rate_limit", cfg.Nearpay.RateLimit),
	)

	return deps, cleanup, nil
}

// newNotifier builds the alert fan-out from the configured channels.
func newNotifier(cfg config.NotifyConfig, logger *slog.Logger) *notify.Notifier {
	var senders []notify.Sender
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.TelegramToken, cfg.TelegramChatID))
	}
	if cfg.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.DiscordWebhookURL))
	}
	return notify.NewNotifier(senders, cfg.Events, logger)
}

// Services holds the application services built on top of Dependencies.
type Services struct {
	Reconciliation *service.ReconciliationService
	Ranking        service.Ranker
	Reports        *service.ReportService // nil when object storage is disabled
}

// NewServices builds the services for cfg from deps.
func NewServices(cfg *config.Config, deps *Dependencies, logger *slog.Logger) *Services {
	recon := service.NewReconciliationService(
		deps.Directory,
		deps.Source,
		reconcile.CollectorConfig{
			PageSize: cfg.Collector.PageSize,
			MaxPages: cfg.Collector.MaxPages,
		},
		logger,
	)

	svcs := &Services{
		Reconciliation: recon,
		Ranking:        recon,
	}

	cacheTTL := cfg.Redis.RankingCacheTTL.Duration
	if cacheTTL > 0 && deps.RankingCache != nil {
		svcs.Ranking = service.NewCachedRanking(recon, deps.RankingCache, cacheTTL, logger)
	}

	if deps.Reports != nil {
		svcs.Reports = service.NewReportService(
			recon,
			deps.Reports,
			deps.LockManager,
			deps.RankingCache,
			deps.AuditLog,
			service.ReportConfig{
				TopN:     cfg.Reports.TopN,
				LockTTL:  cfg.Reports.LockTTL.Duration,
				CacheTTL: cacheTTL,
			},
			logger,
		)
	}

	return svcs
}
