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
	"time"

	"github.com/hibiken/asynq"
	_ "github.com/joho/godotenv/autoload"

	"github.com/obra-dashboard/obra/cmd/obra/cli"
	"github.com/obra-dashboard/obra/internal/app"
	"github.com/obra-dashboard/obra/internal/audit"
	"github.com/obra-dashboard/obra/internal/auth"
	"github.com/obra-dashboard/obra/internal/budgets"
	"github.com/obra-dashboard/obra/internal/categories"
	"github.com/obra-dashboard/obra/internal/dashboard"
	"github.com/obra-dashboard/obra/internal/documents"
	"github.com/obra-dashboard/obra/internal/emails"
	"github.com/obra-dashboard/obra/internal/expenses"
	"github.com/obra-dashboard/obra/internal/finance"
	"github.com/obra-dashboard/obra/internal/meetings"
	"github.com/obra-dashboard/obra/internal/notifications"
	"github.com/obra-dashboard/obra/internal/observability"
	"github.com/obra-dashboard/obra/internal/platform/cache"
	"github.com/obra-dashboard/obra/internal/platform/db"
	"github.com/obra-dashboard/obra/internal/platform/storage"
	"github.com/obra-dashboard/obra/internal/platform/tracing"
	"github.com/obra-dashboard/obra/internal/purchases"
	"github.com/obra-dashboard/obra/internal/rbac"
	"github.com/obra-dashboard/obra/internal/shared"
	"github.com/obra-dashboard/obra/internal/stages"
	"github.com/obra-dashboard/obra/internal/suppliers"
	"github.com/obra-dashboard/obra/internal/users"
	"github.com/obra-dashboard/obra/internal/view"
	"github.com/obra-dashboard/obra/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		if err := cli.RunJobs(ctx, cfg.Redis().Asynq(), os.Args[2:], os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("obra stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	shutdownTracing, err := tracing.Init(ctx, logger, "obra-web", cfg.OTelEnabled)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown", slog.Any("error", err))
		}
	}()

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

	store, err := storage.NewMinIO(ctx, storage.MinIOConfig{
		Endpoint:  cfg.MinIOEndpoint,
		AccessKey: cfg.MinIOAccessKey,
		SecretKey: cfg.MinIOSecretKey,
		Bucket:    cfg.MinIOBucket,
		UseSSL:    cfg.MinIOUseSSL,
	})
	if err != nil {
		return fmt.Errorf("connect object storage: %w", err)
	}

	redisOpt := cfg.Redis().Asynq()
	queue := jobs.NewClient(redisOpt)
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn("queue close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpt)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	svc := app.NewServices(app.ServiceDeps{Config: cfg, Logger: logger, Pool: pool, Redis: redisClient, Store: store, Mail: queue})

	templates, err := view.NewEngine()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	sessions := shared.NewSessionManager(redisClient, "obra_session", cfg.SessionTTL, cfg.IsProduction())
	csrf := shared.NewCSRFManager(cfg.CSRFSecret)
	authz := rbac.Middleware{Logger: logger}

	if cfg.InboundEmailToken == "" {
		logger.Warn("INBOUND_EMAIL_TOKEN not set, inbound e-mail endpoint rejects every call")
	}

	metrics := observability.NewMetrics()
	metricsSrv := app.NewMetricsServer(cfg.MetricsAddr, metrics)
	go func() {
		logger.Info("starting metrics server", slog.String("addr", cfg.MetricsAddr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server", slog.Any("error", err))
		}
	}()
	defer func() { _ = metricsSrv.Close() }()

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessions,
		CSRFManager:    csrf,
		Guard:          auth.NewSessionGuard(logger, sessions, svc.Auth),
		Metrics:        metrics,
		Health: func(r *http.Request) error {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			return errors.Join(pool.Ping(ctx), redisClient.Ping(ctx).Err())
		},

		AuthHandler:          auth.NewHandler(logger, svc.Auth, templates, sessions, csrf),
		DashboardHandler:     dashboard.NewHandler(logger, svc.Dashboard, templates, csrf, authz),
		StagesHandler:        stages.NewHandler(logger, svc.Stages, templates, csrf, authz),
		SuppliersHandler:     suppliers.NewHandler(logger, svc.Suppliers, templates, csrf, authz),
		CategoriesHandler:    categories.NewHandler(logger, svc.Categories, templates, csrf, authz),
		PurchasesHandler:     purchases.NewHandler(logger, svc.Purchases, templates, csrf, authz),
		ExpensesHandler:      expenses.NewHandler(logger, svc.Expenses, templates, csrf, authz),
		BudgetsHandler:       budgets.NewHandler(logger, svc.Budgets, templates, csrf, authz),
		FinanceHandler:       finance.NewHandler(logger, svc.Finance, templates, csrf, authz),
		DocumentsHandler:     documents.NewHandler(logger, svc.Documents, templates, csrf, authz),
		MeetingsHandler:      meetings.NewHandler(logger, svc.Meetings, templates, csrf, authz),
		EmailsHandler:        emails.NewHandler(logger, svc.Emails, templates, csrf, authz),
		InboundHandler:       emails.NewInboundHandler(logger, cfg.InboundEmailToken, queue),
		NotificationsHandler: notifications.NewHandler(logger, svc.Notifications, templates, csrf),
		UsersHandler:         users.NewHandler(logger, svc.Users, templates, csrf, authz),
		AuditHandler:         audit.NewHandler(logger, svc.Audit, templates, csrf, authz),
		PermissionsHandler:   rbac.NewPermissionsHandler(logger, templates, csrf, authz),
		JobHandler:           jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
