package purchases

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/obra-dashboard/obra/internal/lookups"
	"github.com/obra-dashboard/obra/internal/rbac"
	"github.com/obra-dashboard/obra/internal/shared"
	"github.com/obra-dashboard/obra/internal/view"
)

const basePath = "/compras"

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
		r.Use(h.rbac.RequireAll(shared.PermObraEdit))
		r.Get("/new", h.Form)
		r.Post("/", h.Create)
		r.Get("/{id}/edit", h.EditForm)
		r.Post("/{id}/edit", h.Update)
		r.Post("/{id}/entregue", h.MarkDelivered)
		r.Post("/{id}/delete", h.Delete)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermObraView))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	base := shared.ParseListFilters(q, 25)
	filters := Filters{Search: base.Search, Page: base.Page, Limit: base.Limit, Status: q.Get("status")}
	filters.SupplierID, _ = shared.ParseOptionalID(q.Get("fornecedor_id"))
	filters.StageID, _ = shared.ParseOptionalID(q.Get("etapa_id"))

	purchases, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.page.ServerError(w, r, "list purchases failed", err)
		return
	}
	opts, err := h.service.FormOptions(r.Context())
	if err != nil {
		h.logger.Warn("load purchase filters", slog.Any("error", err))
	}
	h.page.Render(w, r, "pages/purchases/list.html", "Compras", map[string]any{
		"Purchases":  purchases,
		"Filters":    filters,
		"Options":    opts,
		"Statuses":   Statuses(),
		"Pagination": shared.NewPagination(filters.Page, filters.Limit, total),
	}, http.StatusOK)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.load(w, r)
	if !ok {
		return
	}
	h.page.Render(w, r, "pages/purchases/show.html", detail.Description, map[string]any{
		"Purchase": detail,
	}, http.StatusOK)
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	p := Purchase{Status: StatusPending, Unit: "un", PurchaseDate: time.Now()}
	h.renderForm(w, r, p, map[string]string{}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	p, errs := purchaseFromForm(r)
	if len(errs) > 0 {
		h.renderForm(w, r, p, errs, http.StatusBadRequest)
		return
	}
	created, err := h.service.Create(r.Context(), p, shared.UserIDFromContext(r.Context()))
	if err != nil {
		h.formError(w, r, p, err)
		return
	}
	h.page.RedirectWithFlash(w, r, purchasePath(created.ID), "success", "Compra registrada")
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.load(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, detail.Purchase, map[string]string{}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.page.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	p, errs := purchaseFromForm(r)
	p.ID = id
	if len(errs) > 0 {
		h.renderForm(w, r, p, errs, http.StatusBadRequest)
		return
	}
	if err := h.service.Update(r.Context(), id, p); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.page.NotFound(w, r)
			return
		}
		h.formError(w, r, p, err)
		return
	}
	h.page.RedirectWithFlash(w, r, purchasePath(id), "success", "Compra atualizada")
}

func (h *Handler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.page.NotFound(w, r)
		return
	}
	if err := h.service.MarkDelivered(r.Context(), id); err != nil {
		if !errors.Is(err, shared.ErrValidation) && !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("mark purchase delivered failed", slog.Any("error", err), slog.Int64("id", id))
		}
		h.page.RedirectWithFlash(w, r, purchasePath(id), "error", shared.UserSafeMessage(err))
		return
	}
	h.page.RedirectWithFlash(w, r, purchasePath(id), "success", "Entrega registrada")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.page.NotFound(w, r)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("delete purchase failed", slog.Any("error", err), slog.Int64("id", id))
		}
		h.page.RedirectWithFlash(w, r, basePath, "error", shared.UserSafeMessage(err))
		return
	}
	h.page.RedirectWithFlash(w, r, basePath, "success", "Compra removida")
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (Detail, bool) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.page.NotFound(w, r)
		return Detail{}, false
	}
	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.page.NotFound(w, r)
		} else {
			h.page.ServerError(w, r, "get purchase failed", err)
		}
		return Detail{}, false
	}
	return detail, true
}

func (h *Handler) formError(w http.ResponseWriter, r *http.Request, p Purchase, err error) {
	if !errors.Is(err, shared.ErrValidation) {
		h.logger.Error("save purchase failed", slog.Any("error", err))
	}
	h.renderForm(w, r, p, shared.FormErrors(err), http.StatusBadRequest)
}

// renderForm shows the purchase form. Without any supplier registered the
// page falls back to a prompt linking to the supplier form.
func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, p Purchase, errs map[string]string, status int) {
	title := "Nova compra"
	if p.ID > 0 {
		title = "Editar compra"
	}
	opts, err := h.service.FormOptions(r.Context())
	if err != nil {
		h.logger.Error("load purchase form options", slog.Any("error", err))
		opts = lookups.Bundle{}
		if _, ok := errs["general"]; !ok {
			errs["general"] = "Não foi possível carregar fornecedores, categorias e etapas"
		}
	}
	h.page.Render(w, r, "pages/purchases/form.html", title, map[string]any{
		"Errors":      errs,
		"Purchase":    p,
		"Options":     opts,
		"Statuses":    Statuses(),
		"NoSuppliers": err == nil && len(opts.Suppliers) == 0,
	}, status)
}

func purchaseFromForm(r *http.Request) (Purchase, map[string]string) {
	errs := map[string]string{}
	p := Purchase{
		Description:   r.PostFormValue("description"),
		Unit:          r.PostFormValue("unit"),
		Status:        r.PostFormValue("status"),
		InvoiceNumber: r.PostFormValue("invoice_number"),
	}
	var err error
	if p.SupplierID, err = shared.ParseID(r.PostFormValue("supplier_id")); err != nil {
		errs["supplier_id"] = fieldMessages["SupplierID"]
	}
	if p.CategoryID, err = shared.ParseOptionalID(r.PostFormValue("category_id")); err != nil {
		errs["category_id"] = fieldMessages["CategoryID"]
	}
	if p.StageID, err = shared.ParseOptionalID(r.PostFormValue("stage_id")); err != nil {
		errs["stage_id"] = fieldMessages["StageID"]
	}
	if p.Quantity, err = shared.ParseMoney(r.PostFormValue("quantity")); err != nil {
		errs["quantity"] = "Quantidade inválida"
	}
	if p.TotalValue, err = shared.ParseMoney(r.PostFormValue("total_value")); err != nil {
		errs["total_value"] = "Valor inválido"
	}
	purchased, err := shared.ParseOptionalDate(r.PostFormValue("purchase_date"))
	switch {
	case err != nil:
		errs["purchase_date"] = "Data inválida"
	case purchased == nil:
		errs["purchase_date"] = fieldMessages["PurchaseDate"]
	default:
		p.PurchaseDate = *purchased
	}
	if p.DeliveryDate, err = shared.ParseOptionalDate(r.PostFormValue("delivery_date")); err != nil {
		errs["delivery_date"] = "Data inválida"
	}
	return p, errs
}

func purchasePath(id int64) string {
	return basePath + "/" + strconv.FormatInt(id, 10)
}
