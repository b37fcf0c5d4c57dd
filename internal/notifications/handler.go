package notifications

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/obra-dashboard/obra/internal/shared"
	"github.com/obra-dashboard/obra/internal/view"
)

const basePath = "/notificacoes"

type Handler struct {
	logger  *slog.Logger
	service *Service
	page    view.Page
}

func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, page: view.Page{Logger: logger, Templates: templates, CSRF: csrf}}
}

// MountRoutes registers the notification routes. Every authenticated user
// reads their own notifications, so no permission is required.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/{id}/lida", h.MarkRead)
	r.Post("/lidas", h.MarkAllRead)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := shared.UserIDFromContext(r.Context())
	items, err := h.service.List(r.Context(), userID)
	if err != nil {
		h.page.ServerError(w, r, "list notifications failed", err)
		return
	}
	unread := 0
	for _, n := range items {
		if n.Unread() {
			unread++
		}
	}
	h.page.Render(w, r, "pages/notifications/list.html", "Notificações", map[string]any{
		"Notifications": items,
		"Unread":        unread,
	}, http.StatusOK)
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.page.NotFound(w, r)
		return
	}
	if err := h.service.MarkRead(r.Context(), id, shared.UserIDFromContext(r.Context())); err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("mark notification read failed", slog.Any("error", err), slog.Int64("id", id))
		}
		h.page.RedirectWithFlash(w, r, basePath, "error", shared.UserSafeMessage(err))
		return
	}
	next := r.PostFormValue("next")
	if !localPath(next) {
		next = basePath
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	if _, err := h.service.MarkAllRead(r.Context(), shared.UserIDFromContext(r.Context())); err != nil {
		h.logger.Error("mark all notifications read failed", slog.Any("error", err))
		h.page.RedirectWithFlash(w, r, basePath, "error", shared.UserSafeMessage(err))
		return
	}
	h.page.RedirectWithFlash(w, r, basePath, "success", "Todas as notificações foram marcadas como lidas")
}

// localPath accepts only same-site absolute paths as redirect targets.
func localPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.Contains(p, "\\")
}
