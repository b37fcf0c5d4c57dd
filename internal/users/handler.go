package users

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/obra-dashboard/obra/internal/rbac"
	"github.com/obra-dashboard/obra/internal/shared"
	"github.com/obra-dashboard/obra/internal/view"
)

// Handler manages user management endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	page    view.Page
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, page: view.Page{Logger: logger, Templates: templates, CSRF: csrf}, rbac: rbac}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermUsersManage))
		r.Get("/", h.listUsers)
		r.Get("/new", h.showCreateUserForm)
		r.Post("/", h.createUser)
		r.Get("/{id}/edit", h.showEditUserForm)
		r.Post("/{id}/edit", h.updateUser)
	})
}

type formErrors map[string]string

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("list users failed", slog.Any("error", err))
		h.page.Render(w, r, "pages/users/list.html", "Usuários", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.page.Render(w, r, "pages/users/list.html", "Usuários", map[string]any{"Users": users, "Errors": formErrors{}}, http.StatusOK)
}

func (h *Handler) showCreateUserForm(w http.ResponseWriter, r *http.Request) {
	h.page.Render(w, r, "pages/users/form.html", "Novo usuário", map[string]any{
		"Errors": formErrors{},
		"Form":   CreateInput{Role: rbac.RoleViewer},
		"Roles":  rbac.Roles(),
	}, http.StatusOK)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	in := CreateInput{
		Name:     r.PostFormValue("name"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
		Role:     r.PostFormValue("role"),
	}
	user, err := h.service.CreateUser(r.Context(), shared.UserIDFromContext(r.Context()), in)
	if err != nil {
		in.Password = ""
		h.page.Render(w, r, "pages/users/form.html", "Novo usuário", map[string]any{
			"Errors": shared.FormErrors(err),
			"Form":   in,
			"Roles":  rbac.Roles(),
		}, http.StatusBadRequest)
		return
	}
	h.page.RedirectWithFlash(w, r, "/usuarios", "success", "Usuário "+user.Name+" criado")
}

func (h *Handler) showEditUserForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.page.NotFound(w, r)
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		h.page.NotFound(w, r)
		return
	}
	h.page.Render(w, r, "pages/users/edit.html", "Editar usuário", map[string]any{
		"Errors": formErrors{},
		"User":   user,
		"Roles":  rbac.Roles(),
	}, http.StatusOK)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.page.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	in := UpdateInput{
		Name:     r.PostFormValue("name"),
		Role:     r.PostFormValue("role"),
		IsActive: r.PostFormValue("is_active") == "on",
	}
	if err := h.service.UpdateUser(r.Context(), shared.UserIDFromContext(r.Context()), id, in); err != nil {
		user, _ := h.service.GetUser(r.Context(), id)
		user.ID = id
		user.Name, user.Role, user.IsActive = in.Name, in.Role, in.IsActive
		h.page.Render(w, r, "pages/users/edit.html", "Editar usuário", map[string]any{
			"Errors": shared.FormErrors(err),
			"User":   user,
			"Roles":  rbac.Roles(),
		}, http.StatusBadRequest)
		return
	}
	h.page.RedirectWithFlash(w, r, "/usuarios", "success", "Usuário atualizado")
}
