package app

import (
	"context"
	"log/slog"
	"strings"

	s3blob "github.com/cardscout/cardscout/internal/blob/s3"
	redisc "github.com/cardscout/cardscout/internal/cache/redis"
	"github.com/cardscout/cardscout/internal/config"
	"github.com/cardscout/cardscout/internal/domain"
	"github.com/cardscout/cardscout/internal/notify"
	"github.com/cardscout/cardscout/internal/pipeline"
	"github.com/cardscout/cardscout/internal/platform/ebay"
	"github.com/cardscout/cardscout/internal/pricing"
	"github.com/cardscout/cardscout/internal/query"
	"github.com/cardscout/cardscout/internal/ruleset"
	"github.com/cardscout/cardscout/internal/server"
	"github.com/cardscout/cardscout/internal/server/handler"
	"github.com/cardscout/cardscout/internal/server/middleware"
	"github.com/cardscout/cardscout/internal/server/ws"
	"github.com/cardscout/cardscout/internal/store/postgres"
)

// scanQueueSize bounds pending ad-hoc scan requests.
const scanQueueSize = 16

// Dependencies is the wired object graph handed to the mode runners. Hub,
// Server, and ScanCh are nil unless the HTTP server participates in the
// configured mode.
type Dependencies struct {
	Rules        *ruleset.Ruleset
	Orchestrator *pipeline.Orchestrator
	Hub          *ws.Hub
	Server       *server.Server
	ScanCh       chan string
	Closers      []func() error
}

// Wire builds the full dependency graph from the configuration. Postgres is
// required; Redis, S3, and the notification channels are optional and are
// skipped when unconfigured. On error every already-acquired resource is
// released before returning.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	// Ruleset. An empty path uses the built-in defaults.
	rules, err := ruleset.Load(cfg.Scout.RulesetPath)
	if err != nil {
		return nil, err
	}

	// Search provider.
	provider := ebay.NewClient(ebay.Config{
		BaseURL:       cfg.Ebay.BaseURL,
		AuthURL:       cfg.Ebay.AuthURL,
		ClientID:      cfg.Ebay.ClientID,
		ClientSecret:  cfg.Ebay.ClientSecret,
		MarketplaceID: cfg.Ebay.MarketplaceID,
	}, logger)

	// Postgres: seen ledger and run store.
	pg, err := postgres.New(ctx, postgres.ClientConfig{
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
		return nil, err
	}
	closers = append(closers, func() error {
		pg.Close()
		return nil
	})
	if cfg.Postgres.RunMigrations {
		if err := pg.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, err
		}
	}
	seenStore := postgres.NewSeenStore(pg.Pool())
	runStore := postgres.NewRunStore(pg.Pool())

	// Redis: comp cache, seen cache, API rate limiter. Optional.
	var (
		compCache domain.CompCache
		seenCache domain.SeenCache
		limiter   middleware.RateLimiter
	)
	if cfg.Redis.Addr != "" {
		rc, err := redisc.New(ctx, redisc.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, err
		}
		closers = append(closers, rc.Close)
		compCache = redisc.NewCompCache(rc, logger)
		seenCache = redisc.NewSeenCache(rc)
		limiter = redisc.NewRateLimiter(rc)
	} else {
		logger.InfoContext(ctx, "redis not configured, caches disabled")
	}

	// S3: run archive. Optional.
	var archiver pipeline.RunArchiver
	if cfg.S3.Bucket != "" {
		s3c, err := s3blob.New(ctx, s3blob.ClientConfig{
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
			return nil, err
		}
		closers = append(closers, s3c.Close)
		archiver = s3blob.NewRunArchiver(s3blob.NewWriter(s3c), logger)
	} else {
		logger.InfoContext(ctx, "s3 not configured, run archiving disabled")
	}

	// Notification channels.
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	var notifier *notify.Notifier
	if len(senders) > 0 {
		notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)
	}

	// Evaluation pipeline.
	expander := query.NewExpander(rules, logger)
	estimator := pricing.NewEstimator(provider, compCache, rules, cfg.Scout.CompCacheTTL.Duration, logger)
	evaluator := pipeline.NewEvaluator(rules, estimator, logger)

	// The deal-stream hub and HTTP server only exist in server-bearing modes.
	mode := strings.ToLower(cfg.Mode)
	serveHTTP := cfg.Server.Enabled && (mode == "server" || mode == "full")

	deps := &Dependencies{Rules: rules, Closers: closers}

	var broadcaster pipeline.DealBroadcaster
	if serveHTTP {
		deps.Hub = ws.NewHub(logger)
		broadcaster = deps.Hub
	}

	deps.Orchestrator = pipeline.NewOrchestrator(
		expander,
		provider,
		evaluator,
		rules,
		seenStore,
		seenCache,
		runStore,
		archiver,
		notifier,
		broadcaster,
		pipeline.Options{
			RawOnly:     cfg.Scout.RawOnly,
			ExcludeBase: cfg.Scout.ExcludeBase,
			MaxPrice:    cfg.Scout.MaxPrice,
			Workers:     cfg.Scout.Workers,
		},
		logger,
	)

	if serveHTTP {
		deps.ScanCh = make(chan string, scanQueueSize)
		deps.Server = server.NewServer(
			server.Config{
				Port:        cfg.Server.Port,
				CORSOrigins: cfg.Server.CORSOrigins,
				APIKey:      cfg.Server.APIKey,
				RateLimit:   cfg.Server.RateLimit,
			},
			server.Handlers{
				Health: handler.NewHealthHandler(logger),
				Runs:   handler.NewRunHandler(runStore, logger),
				Scan:   handler.NewScanHandler(deps.ScanCh, logger),
			},
			deps.Hub,
			limiter,
			logger,
		)
	}

	logger.InfoContext(ctx, "dependencies wired",
		slog.Bool("redis", cfg.Redis.Addr != ""),
		slog.Bool("s3", cfg.S3.Bucket != ""),
		slog.Int("notify_channels", len(senders)),
		slog.Bool("http", serveHTTP),
	)
	if serveHTTP != (mode == "server" || mode == "full") {
		logger.WarnContext(ctx, "server disabled by config in a server-bearing mode")
	}

	return deps, nil
}
