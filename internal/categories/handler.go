package categories

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/obra-dashboard/obra/internal/rbac"
	"github.com/obra-dashboard/obra/internal/shared"
	"github.com/obra-dashboard/obra/internal/view"
)

const basePath = "/categorias"

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
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermObraView))
		r.Get("/", h.List)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermFinanceEdit))
		r.Get("/new", h.Form)
		r.Post("/", h.Create)
		r.Get("/{id}/edit", h.EditForm)
		r.Post("/{id}/edit", h.Update)
		r.Post("/{id}/delete", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.List(r.Context())
	if err != nil {
		h.page.ServerError(w, r, "list categories failed", err)
		return
	}
	h.page.Render(w, r, "pages/categories/list.html", "Categorias", map[string]any{
		"Categories": categories,
	}, http.StatusOK)
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, Category{}, map[string]string{}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	c := Category{Name: r.PostFormValue("name"), Description: r.PostFormValue("description")}
	if _, err := h.service.Create(r.Context(), c); err != nil {
		h.formError(w, r, c, err)
		return
	}
	h.page.RedirectWithFlash(w, r, basePath, "success", "Categoria criada")
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.page.NotFound(w, r)
		return
	}
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.page.NotFound(w, r)
			return
		}
		h.page.ServerError(w, r, "get category failed", err)
		return
	}
	h.renderForm(w, r, c, map[string]string{}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.page.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	c := Category{ID: id, Name: r.PostFormValue("name"), Description: r.PostFormValue("description")}
	if err := h.service.Update(r.Context(), id, c); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.page.NotFound(w, r)
			return
		}
		h.formError(w, r, c, err)
		return
	}
	h.page.RedirectWithFlash(w, r, basePath, "success", "Categoria atualizada")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.page.NotFound(w, r)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		if !errors.Is(err, shared.ErrInUse) && !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("delete category failed", slog.Any("error", err))
		}
		h.page.RedirectWithFlash(w, r, basePath, "error", shared.UserSafeMessage(err))
		return
	}
	h.page.RedirectWithFlash(w, r, basePath, "success", "Categoria removida")
}

func (h *Handler) formError(w http.ResponseWriter, r *http.Request, c Category, err error) {
	if !errors.Is(err, shared.ErrValidation) {
		h.logger.Error("save category failed", slog.Any("error", err))
	}
	h.renderForm(w, r, c, shared.FormErrors(err), http.StatusBadRequest)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, c Category, errs map[string]string, status int) {
	title := "Nova categoria"
	if c.ID > 0 {
		title = "Editar categoria"
	}
	h.page.Render(w, r, "pages/categories/form.html", title, map[string]any{
		"Errors":   errs,
		"Category": c,
	}, status)
}
