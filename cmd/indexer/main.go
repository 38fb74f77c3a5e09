package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/iuliansafta/solana-indexer/internal/alert"
	"github.com/iuliansafta/solana-indexer/internal/chain"
	"github.com/iuliansafta/solana-indexer/internal/chain/solana"
	"github.com/iuliansafta/solana-indexer/internal/config"
	"github.com/iuliansafta/solana-indexer/internal/domain/model"
	"github.com/iuliansafta/solana-indexer/internal/indexer"
	"github.com/iuliansafta/solana-indexer/internal/notify"
	"github.com/iuliansafta/solana-indexer/internal/retry"
	"github.com/iuliansafta/solana-indexer/internal/store"
	"github.com/iuliansafta/solana-indexer/internal/store/postgres"
	"github.com/iuliansafta/solana-indexer/internal/tracing"
)

const defaultMigrationsDir = "internal/store/postgres/migrations"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	switch cfg.Log.Level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	logger.Info("starting solana-indexer",
		"solana_rpc", cfg.Solana.RPCURL,
		"notify_backend", cfg.Notify.Backend,
		"notify_channel", cfg.Notify.Channel,
		"max_signatures", cfg.Ingest.MaxSignatures,
	)

	shutdownTracing, err := tracing.Init(context.Background(), "solana-indexer",
		cfg.Tracing.OTLPEndpoint, cfg.Tracing.Insecure, cfg.Tracing.SampleRatio)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown error", "error", err)
		}
	}()
	if cfg.Tracing.OTLPEndpoint != "" {
		logger.Info("tracing enabled", "endpoint", cfg.Tracing.OTLPEndpoint)
	}

	db, err := postgres.New(postgres.Config{
		URL:                cfg.DB.URL,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetime:    cfg.DB.ConnMaxLifetime,
		StatementTimeoutMS: cfg.DB.StatementTimeoutMS,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	migrationsDir := os.Getenv("MIGRATIONS_DIR")
	if migrationsDir == "" {
		migrationsDir = defaultMigrationsDir
	}
	if err := db.RunMigrations(migrationsDir); err != nil {
		logger.Error("failed to run migrations", "error", err, "dir", migrationsDir)
		os.Exit(1)
	}

	addressRepo := postgres.NewAddressRepo(db)
	balanceRepo := postgres.NewBalanceRepo(db)

	registry := chain.NewRegistry()
	registry.Register(model.ChainSolana, solana.NewAdapter(cfg.Solana.RPCURL, solana.Options{
		RPS:         cfg.Solana.RPS,
		Burst:       cfg.Solana.Burst,
		TxCacheSize: cfg.Solana.TxCacheSize,
		TxCacheTTL:  cfg.Solana.TxCacheTTL,
	}, logger))

	alerter := buildAlerter(cfg, logger)

	ingester := indexer.NewIngester(registry, addressRepo, balanceRepo, alerter, indexer.Config{
		MaxSignatures: cfg.Ingest.MaxSignatures,
		RunTimeout:    cfg.Ingest.RunTimeout,
		Retry:         retry.Config{MaxAttempts: cfg.Ingest.RetryMaxAttempts},
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Catch up on addresses whose trigger fired while we were down.
	if err := sweepUninspected(ctx, registry, addressRepo, ingester, logger); err != nil {
		logger.Error("startup sweep failed", "error", err)
		os.Exit(1)
	}

	source, err := buildSource(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize notification source", "error", err)
		os.Exit(1)
	}
	defer source.Close()

	dispatcher := notify.NewDispatcher(source, ingester, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runHealthServer(gCtx, cfg.Server.HealthPort, logger)
	})

	g.Go(func() error {
		return dispatcher.Run(gCtx)
	})

	g.Go(func() error {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("indexer exited with error", "error", err)
		os.Exit(1)
	}

	logger.Info("indexer shut down gracefully")
}

func buildAlerter(cfg *config.Config, logger *slog.Logger) alert.Alerter {
	var alerters []alert.Alerter
	if cfg.Alert.SlackWebhookURL != "" {
		alerters = append(alerters, alert.NewSlackAlerter(cfg.Alert.SlackWebhookURL))
	}
	if cfg.Alert.WebhookURL != "" {
		alerters = append(alerters, alert.NewWebhookAlerter(cfg.Alert.WebhookURL))
	}
	if len(alerters) == 0 {
		return nil
	}
	return alert.NewMultiAlerter(cfg.Alert.Cooldown, logger, alerters...)
}

func buildSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) (notify.Source, error) {
	switch cfg.Notify.Backend {
	case config.NotifyBackendRedis:
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis URL: %w", err)
		}
		return notify.NewRedisSource(ctx, redis.NewClient(opt), cfg.Notify.Channel, logger)
	default:
		return notify.NewPGListener(cfg.DB.URL, cfg.Notify.Channel, logger)
	}
}

func sweepUninspected(
	ctx context.Context,
	registry *chain.Registry,
	addresses store.AddressRepository,
	ingester *indexer.Ingester,
	logger *slog.Logger,
) error {
	for _, c := range registry.Chains() {
		pending, err := addresses.GetUninspected(ctx, c)
		if err != nil {
			return fmt.Errorf("list uninspected %s addresses: %w", c, err)
		}
		for _, addr := range pending {
			if _, err := ingester.Ingest(ctx, addr); err != nil {
				logger.Error("startup ingestion failed",
					"chain", c,
					"address", addr.Address,
					"error", err,
				)
			}
		}
		logger.Info("startup sweep finished", "chain", c, "addresses", len(pending))
	}
	return nil
}

func runHealthServer(ctx context.Context, port int, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			logger.Warn("failed to write health response", "error", err)
		}
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
			logger.Warn("health server shutdown error", "error", err)
		}
	}()

	logger.Info("health server started", "port", port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("health server: %w", err)
	}
	return nil
}
