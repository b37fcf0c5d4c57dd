package app

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/obra-dashboard/obra/internal/audit"
	"github.com/obra-dashboard/obra/internal/auth"
	"github.com/obra-dashboard/obra/internal/budgets"
	"github.com/obra-dashboard/obra/internal/categories"
	"github.com/obra-dashboard/obra/internal/dashboard"
	"github.com/obra-dashboard/obra/internal/documents"
	"github.com/obra-dashboard/obra/internal/emails"
	"github.com/obra-dashboard/obra/internal/expenses"
	"github.com/obra-dashboard/obra/internal/finance"
	"github.com/obra-dashboard/obra/internal/lookups"
	"github.com/obra-dashboard/obra/internal/meetings"
	"github.com/obra-dashboard/obra/internal/notifications"
	"github.com/obra-dashboard/obra/internal/platform/storage"
	"github.com/obra-dashboard/obra/internal/purchases"
	"github.com/obra-dashboard/obra/internal/shared"
	"github.com/obra-dashboard/obra/internal/stages"
	"github.com/obra-dashboard/obra/internal/suppliers"
	"github.com/obra-dashboard/obra/internal/users"
)

// Services holds every domain service, shared by the web and worker binaries.
type Services struct {
	Auth          *auth.Service
	Audit         *audit.Service
	Users         *users.Service
	Suppliers     *suppliers.Service
	Categories    *categories.Service
	Stages        *stages.Service
	Purchases     *purchases.Service
	Expenses      *expenses.Service
	Budgets       *budgets.Service
	Finance       *finance.Service
	FinanceCache  *finance.Cache
	Documents     *documents.Service
	Meetings      *meetings.Service
	Notifications *notifications.Service
	Emails        *emails.Service
	Dashboard     *dashboard.Service
	Idempotency   *shared.IdempotencyStore
}

// ServiceDeps are the infrastructure handles services are built on. Store
// may be nil for processes that never touch documents.
type ServiceDeps struct {
	Config *Config
	Logger *slog.Logger
	Pool   *pgxpool.Pool
	Redis  *redis.Client
	Store  storage.Storage
	Mail   notifications.MailQueue
}

// NewServices wires repositories, caches and services together.
func NewServices(deps ServiceDeps) *Services {
	pool, logger := deps.Pool, deps.Logger
	src := lookups.NewRepository(pool)
	cache := finance.NewCache(deps.Redis, deps.Config.FinanceCacheTTL)
	auditLog := shared.NewAuditLogger(pool)

	s := &Services{FinanceCache: cache, Idempotency: shared.NewIdempotencyStore(pool)}
	s.Auth = auth.NewService(auth.NewRepository(pool))
	s.Audit = audit.NewService(audit.NewRepository(pool))
	s.Users = users.NewService(users.NewRepository(pool)).WithAudit(auditLog, logger)
	s.Suppliers = suppliers.NewService(suppliers.NewRepository(pool))
	s.Categories = categories.NewService(categories.NewRepository(pool), cache, logger)
	s.Stages = stages.NewService(stages.NewRepository(pool))
	s.Purchases = purchases.NewService(purchases.NewRepository(pool), src)
	s.Budgets = budgets.NewService(budgets.NewRepository(pool), src, cache, logger)
	s.Finance = finance.NewService(finance.NewRepository(pool), src, s.Budgets, cache, logger)
	s.Meetings = meetings.NewService(meetings.NewRepository(pool))
	s.Notifications = notifications.NewService(notifications.NewRepository(pool), deps.Mail, logger)
	s.Emails = emails.NewService(emails.NewRepository(pool), s.Notifications, logger)
	s.Expenses = expenses.NewService(expenses.NewRepository(pool), src, cache, auditLog, logger).WithEmailLinker(s.Emails)
	if deps.Store != nil {
		s.Documents = documents.NewService(documents.NewRepository(pool), deps.Store, src, logger).WithAudit(auditLog)
	}
	s.Dashboard = dashboard.NewService(dashboard.Sources{
		Stages:        s.Stages,
		Finance:       s.Finance,
		Meetings:      s.Meetings,
		Notifications: s.Notifications,
		Expenses:      s.Expenses,
		Emails:        s.Emails,
	}, logger)
	return s
}
