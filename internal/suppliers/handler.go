package suppliers

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

const basePath = "/fornecedores"

type Handler struct {
	logger  *slog.Logger
	service *Service
	page    view.Page
	rbac    rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, page: view.Page{Logger: logger, Templates: templates, CSRF: csrf}, rbac: rbac}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filters := shared.ParseListFilters(r.URL.Query(), 20)
	suppliers, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.page.ServerError(w, r, "list suppliers failed", err)
		return
	}
	h.page.Render(w, r, "pages/suppliers/list.html", "Fornecedores", map[string]any{
		"Suppliers":  suppliers,
		"Filters":    filters,
		"Pagination": shared.NewPagination(filters.Page, filters.Limit, total),
	}, http.StatusOK)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	supplier, ok := h.load(w, r)
	if !ok {
		return
	}
	h.page.Render(w, r, "pages/suppliers/show.html", supplier.Name, map[string]any{
		"Supplier": supplier,
	}, http.StatusOK)
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, Supplier{}, map[string]string{}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	supplier := supplierFromForm(r)
	created, err := h.service.Create(r.Context(), supplier)
	if err != nil {
		h.formError(w, r, supplier, err)
		return
	}
	h.page.RedirectWithFlash(w, r, basePath+"/"+strconv.FormatInt(created.ID, 10), "success", "Fornecedor cadastrado")
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	supplier, ok := h.load(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, supplier, map[string]string{}, http.StatusOK)
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
	supplier := supplierFromForm(r)
	supplier.ID = id
	if err := h.service.Update(r.Context(), id, supplier); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.page.NotFound(w, r)
			return
		}
		h.formError(w, r, supplier, err)
		return
	}
	h.page.RedirectWithFlash(w, r, basePath+"/"+strconv.FormatInt(id, 10), "success", "Fornecedor atualizado")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.page.NotFound(w, r)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		if !errors.Is(err, shared.ErrInUse) && !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("delete supplier failed", slog.Any("error", err), slog.Int64("id", id))
		}
		h.page.RedirectWithFlash(w, r, basePath, "error", shared.UserSafeMessage(err))
		return
	}
	h.page.RedirectWithFlash(w, r, basePath, "success", "Fornecedor removido")
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (Supplier, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.page.NotFound(w, r)
		return Supplier{}, false
	}
	supplier, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.page.NotFound(w, r)
		} else {
			h.page.ServerError(w, r, "get supplier failed", err)
		}
		return Supplier{}, false
	}
	return supplier, true
}

func (h *Handler) formError(w http.ResponseWriter, r *http.Request, supplier Supplier, err error) {
	if !errors.Is(err, shared.ErrValidation) {
		h.logger.Error("save supplier failed", slog.Any("error", err))
	}
	h.renderForm(w, r, supplier, shared.FormErrors(err), http.StatusBadRequest)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, supplier Supplier, errs map[string]string, status int) {
	title := "Novo fornecedor"
	if supplier.ID > 0 {
		title = "Editar fornecedor"
	}
	h.page.Render(w, r, "pages/suppliers/form.html", title, map[string]any{
		"Errors":   errs,
		"Supplier": supplier,
	}, status)
}

func supplierFromForm(r *http.Request) Supplier {
	return Supplier{
		Name:        r.PostFormValue("name"),
		Document:    r.PostFormValue("document"),
		ServiceType: r.PostFormValue("service_type"),
		ContactName: r.PostFormValue("contact_name"),
		Phone:       r.PostFormValue("phone"),
		Email:       r.PostFormValue("email"),
		Notes:       r.PostFormValue("notes"),
	}
}
