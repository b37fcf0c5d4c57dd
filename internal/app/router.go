package app

import (
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

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
	"github.com/obra-dashboard/obra/internal/platform/httpx"
	"github.com/obra-dashboard/obra/internal/purchases"
	"github.com/obra-dashboard/obra/internal/rbac"
	"github.com/obra-dashboard/obra/internal/shared"
	"github.com/obra-dashboard/obra/internal/stages"
	"github.com/obra-dashboard/obra/internal/suppliers"
	"github.com/obra-dashboard/obra/internal/users"
	"github.com/obra-dashboard/obra/jobs"
	"github.com/obra-dashboard/obra/web"
)

// RouterParams groups dependencies for building the HTTP router. Nil
// feature handlers are not mounted.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Guard          *auth.SessionGuard
	Metrics        *observability.Metrics
	Health         func(*http.Request) error

	AuthHandler          *auth.Handler
	DashboardHandler     *dashboard.Handler
	StagesHandler        *stages.Handler
	SuppliersHandler     *suppliers.Handler
	CategoriesHandler    *categories.Handler
	PurchasesHandler     *purchases.Handler
	ExpensesHandler      *expenses.Handler
	BudgetsHandler       *budgets.Handler
	FinanceHandler       *finance.Handler
	DocumentsHandler     *documents.Handler
	MeetingsHandler      *meetings.Handler
	EmailsHandler        *emails.Handler
	InboundHandler       *emails.InboundHandler
	NotificationsHandler *notifications.Handler
	UsersHandler         *users.Handler
	AuditHandler         *audit.Handler
	PermissionsHandler   *rbac.PermissionsHandler
	JobHandler           *jobs.Handler
}

// NewMetricsServer serves Prometheus metrics on a listener apart from the app.
func NewMetricsServer(addr string, m *observability.Metrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", m.Handler())
	return &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
}

// NewRouter constructs the application router.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}
	if params.Guard != nil {
		r.Use(params.Guard.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if params.Health != nil {
			if err := params.Health(r); err != nil {
				params.Logger.Warn("health check", slog.Any("error", err))
				httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if params.AuthHandler != nil {
		params.AuthHandler.MountRoutes(r)
	}
	if params.DashboardHandler != nil {
		params.DashboardHandler.MountRoutes(r)
	}
	if params.StagesHandler != nil {
		params.StagesHandler.MountRoutes(r)
	}
	if params.FinanceHandler != nil {
		params.FinanceHandler.MountRoutes(r)
	}
	if params.InboundHandler != nil {
		params.InboundHandler.MountRoutes(r)
	}
	if params.SuppliersHandler != nil {
		r.Route("/fornecedores", params.SuppliersHandler.MountRoutes)
	}
	if params.CategoriesHandler != nil {
		r.Route("/categorias", params.CategoriesHandler.MountRoutes)
	}
	if params.PurchasesHandler != nil {
		r.Route("/compras", params.PurchasesHandler.MountRoutes)
	}
	if params.ExpensesHandler != nil {
		r.Route("/gastos", params.ExpensesHandler.MountRoutes)
	}
	if params.BudgetsHandler != nil {
		r.Route("/orcamentos", params.BudgetsHandler.MountRoutes)
	}
	if params.DocumentsHandler != nil {
		r.Route("/documentos", params.DocumentsHandler.MountRoutes)
	}
	if params.MeetingsHandler != nil {
		r.Route("/reunioes", params.MeetingsHandler.MountRoutes)
	}
	if params.EmailsHandler != nil {
		r.Route("/emails", params.EmailsHandler.MountRoutes)
	}
	if params.NotificationsHandler != nil {
		r.Route("/notificacoes", params.NotificationsHandler.MountRoutes)
	}
	if params.UsersHandler != nil {
		r.Route("/usuarios", params.UsersHandler.MountRoutes)
	}
	if params.AuditHandler != nil {
		r.Route("/auditoria", params.AuditHandler.MountRoutes)
	}
	if params.PermissionsHandler != nil {
		r.Route("/permissoes", params.PermissionsHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	if params.Config != nil && params.Config.OTelEnabled {
		return otelhttp.NewHandler(r, "obra.http", otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}))
	}
	return r
}

// staticCacheHandler caches static assets in the browser for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
