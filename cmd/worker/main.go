package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/obra-dashboard/obra/internal/app"
	jobmetrics "github.com/obra-dashboard/obra/internal/jobs"
	"github.com/obra-dashboard/obra/internal/platform/cache"
	"github.com/obra-dashboard/obra/internal/platform/db"
	"github.com/obra-dashboard/obra/internal/platform/mail"
	"github.com/obra-dashboard/obra/internal/platform/tracing"
	"github.com/obra-dashboard/obra/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg).With(slog.String("process", "worker"))

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	shutdownTracing, err := tracing.Init(ctx, logger, "obra-worker", cfg.OTelEnabled)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.Redis())
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	redisOpt := cfg.Redis().Asynq()
	queue := jobs.NewClient(redisOpt)
	defer func() { _ = queue.Close() }()

	svc := app.NewServices(app.ServiceDeps{Config: cfg, Logger: logger, Pool: pool, Redis: redisClient, Mail: queue})

	handlers := &jobs.Jobs{
		Ingester: svc.Emails,
		Mailer: mail.NewSMTP(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			From:     cfg.SMTPFrom,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		}),
		Finance:  svc.Finance,
		Sessions: svc.Auth,
		Keys:     svc.Idempotency,
		Logger:   logger,
		Metrics:  jobmetrics.NewMetrics(nil),
	}
	cron, err := jobs.DefaultCron()
	if err != nil {
		return fmt.Errorf("build cron: %w", err)
	}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpt,
		Logger:    logger,
		Handlers:  handlers.Handlers(),
		Cron:      cron,
	})
	if err != nil {
		return fmt.Errorf("init worker: %w", err)
	}

	go jobs.WatchBumps(ctx, svc.FinanceCache.Subscribe(ctx), queue, logger)

	if cfg.WorkerMetricsAddr != "" {
		metricsSrv := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: promhttp.Handler()}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("worker metrics server", slog.Any("error", err))
			}
		}()
		defer func() { _ = metricsSrv.Close() }()
	}

	logger.Info("worker started")
	return worker.Run(ctx)
}
