package budgets

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/obra-dashboard/obra/internal/lookups"
	"github.com/obra-dashboard/obra/internal/rbac"
	"github.com/obra-dashboard/obra/internal/shared"
	"github.com/obra-dashboard/obra/internal/view"
)

const basePath = "/orcamentos"

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
		r.Use(h.rbac.RequireAny(shared.PermFinanceView))
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
	report, err := h.service.Report(r.Context())
	if err != nil {
		h.page.ServerError(w, r, "budget report failed", err)
		return
	}
	h.page.Render(w, r, "pages/budgets/list.html", "Orçamentos", map[string]any{
		"Report": report,
	}, http.StatusOK)
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	b := Budget{}
	b.CategoryID, _ = shared.ParseID(r.URL.Query().Get("categoria_id"))
	b.StageID, _ = shared.ParseOptionalID(r.URL.Query().Get("etapa_id"))
	h.renderForm(w, r, b, map[string]string{}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	b, errs := budgetFromForm(r)
	if len(errs) > 0 {
		h.renderForm(w, r, b, errs, http.StatusBadRequest)
		return
	}
	if _, err := h.service.Create(r.Context(), b); err != nil {
		h.formError(w, r, b, err)
		return
	}
	h.page.RedirectWithFlash(w, r, basePath, "success", "Orçamento cadastrado")
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.page.NotFound(w, r)
		return
	}
	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.page.NotFound(w, r)
			return
		}
		h.page.ServerError(w, r, "get budget failed", err)
		return
	}
	h.renderForm(w, r, b, map[string]string{}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.page.NotFound(w, r)
		return
	}
	b, errs := budgetFromForm(r)
	b.ID = id
	if len(errs) > 0 {
		h.renderForm(w, r, b, errs, http.StatusBadRequest)
		return
	}
	if err := h.service.Update(r.Context(), id, b); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.page.NotFound(w, r)
			return
		}
		h.formError(w, r, b, err)
		return
	}
	h.page.RedirectWithFlash(w, r, basePath, "success", "Orçamento atualizado")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.page.NotFound(w, r)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("delete budget failed", slog.Any("error", err), slog.Int64("id", id))
		}
		h.page.RedirectWithFlash(w, r, basePath, "error", shared.UserSafeMessage(err))
		return
	}
	h.page.RedirectWithFlash(w, r, basePath, "success", "Orçamento removido")
}

func (h *Handler) formError(w http.ResponseWriter, r *http.Request, b Budget, err error) {
	if !errors.Is(err, shared.ErrValidation) {
		h.logger.Error("save budget failed", slog.Any("error", err))
	}
	h.renderForm(w, r, b, shared.FormErrors(err), http.StatusBadRequest)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, b Budget, errs map[string]string, status int) {
	title := "Novo orçamento"
	if b.ID > 0 {
		title = "Editar orçamento"
	}
	opts, err := h.service.FormOptions(r.Context())
	if err != nil {
		h.logger.Error("load budget form options", slog.Any("error", err))
		opts = lookups.Bundle{}
		if _, ok := errs["general"]; !ok {
			errs["general"] = "Não foi possível carregar categorias e etapas"
		}
	}
	h.page.Render(w, r, "pages/budgets/form.html", title, map[string]any{
		"Errors":  errs,
		"Budget":  b,
		"Options": opts,
	}, status)
}

func budgetFromForm(r *http.Request) (Budget, map[string]string) {
	errs := map[string]string{}
	b := Budget{Notes: r.PostFormValue("notes")}
	var err error
	if b.CategoryID, err = shared.ParseID(r.PostFormValue("category_id")); err != nil {
		errs["category_id"] = fieldMessages["CategoryID"]
	}
	if b.StageID, err = shared.ParseOptionalID(r.PostFormValue("stage_id")); err != nil {
		errs["stage_id"] = fieldMessages["StageID"]
	}
	if b.PlannedValue, err = shared.ParseMoney(r.PostFormValue("planned_value")); err != nil {
		errs["planned_value"] = "Valor inválido"
	}
	return b, errs
}
