package emails

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/obra-dashboard/obra/internal/rbac"
	"github.com/obra-dashboard/obra/internal/shared"
	"github.com/obra-dashboard/obra/internal/view"
)

const basePath = "/emails"

type Handler struct {
	logger  *slog.Logger
	service *Service
	page    view.Page
	rbac    rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, page: view.Page{Logger: logger, Templates: templates, CSRF: csrf}, rbac: rbac}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireAny(shared.PermEmailsManage))
	r.Get("/", h.List)
	r.Get("/{id}", h.Show)
	r.Post("/{id}/processado", h.setStatus(StatusProcessed, "E-mail marcado como processado"))
	r.Post("/{id}/ignorado", h.setStatus(StatusIgnored, "E-mail ignorado"))
	r.Post("/{id}/reabrir", h.setStatus(StatusNew, "E-mail reaberto"))
	r.Post("/{id}/converter", h.Convert)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	lf := shared.ParseListFilters(r.URL.Query(), 25)
	filters := Filters{Status: r.URL.Query().Get("status"), Page: lf.Page, Limit: lf.Limit}
	if filters.Status != "" && !validStatus(filters.Status) {
		filters.Status = ""
	}
	items, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.page.ServerError(w, r, "list emails failed", err)
		return
	}
	h.page.Render(w, r, "pages/emails/list.html", "E-mails monitorados", map[string]any{
		"Emails":     items,
		"Filters":    filters,
		"Statuses":   Statuses(),
		"Pagination": shared.NewPagination(filters.Page, filters.Limit, total),
	}, http.StatusOK)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	e, ok := h.load(w, r)
	if !ok {
		return
	}
	h.page.Render(w, r, "pages/emails/show.html", e.Subject, map[string]any{
		"Email": e,
	}, http.StatusOK)
}

func (h *Handler) setStatus(status, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := shared.ParseID(chi.URLParam(r, "id"))
		if err != nil {
			h.page.NotFound(w, r)
			return
		}
		if err := h.service.SetStatus(r.Context(), id, status); err != nil {
			if !errors.Is(err, shared.ErrNotFound) {
				h.logger.Error("set email status failed", slog.Any("error", err), slog.Int64("id", id))
			}
			h.page.RedirectWithFlash(w, r, emailPath(id), "error", shared.UserSafeMessage(err))
			return
		}
		h.page.RedirectWithFlash(w, r, emailPath(id), "success", message)
	}
}

// Convert sends the user to the expense form prefilled from the e-mail.
// The e-mail is closed when that expense is saved.
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	e, ok := h.load(w, r)
	if !ok {
		return
	}
	http.Redirect(w, r, ExpenseFormURL(e), http.StatusSeeOther)
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (Email, bool) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.page.NotFound(w, r)
		return Email{}, false
	}
	e, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.page.NotFound(w, r)
			return Email{}, false
		}
		h.page.ServerError(w, r, "get email failed", err)
		return Email{}, false
	}
	return e, true
}

func validStatus(s string) bool {
	for _, v := range Statuses() {
		if v == s {
			return true
		}
	}
	return false
}
