package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/obra-dashboard/obra/internal/rbac"
	"github.com/obra-dashboard/obra/internal/shared"
	"github.com/obra-dashboard/obra/internal/view"
)

const Path = "/dashboard"

type Handler struct {
	logger  *slog.Logger
	service *Service
	page    view.Page
	rbac    rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, page: view.Page{Logger: logger, Templates: templates, CSRF: csrf}, rbac: rbac}
}

// MountRoutes registers the dashboard and the root redirect.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, Path, http.StatusSeeOther)
	})
	r.With(h.rbac.RequireAny(shared.PermObraView)).Get(Path, h.Show)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	user, _ := shared.UserFromContext(r.Context())
	v := h.service.Load(r.Context(), Viewer{
		UserID:      user.ID,
		SeeFinance:  rbac.Can(user.Role, shared.PermFinanceView),
		ManageEmail: rbac.Can(user.Role, shared.PermEmailsManage),
	})
	h.page.Render(w, r, "pages/dashboard.html", "Painel", v, http.StatusOK)
}
