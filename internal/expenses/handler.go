package expenses

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/obra-dashboard/obra/internal/lookups"
	"github.com/obra-dashboard/obra/internal/rbac"
	"github.com/obra-dashboard/obra/internal/shared"
	"github.com/obra-dashboard/obra/internal/view"
)

const (
	basePath    = "/gastos"
	monthLayout = "2006-01"
)

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
		r.Use(h.rbac.RequireAll(shared.PermFinanceEdit))
		r.Get("/new", h.Form)
		r.Post("/", h.Create)
		r.Get("/{id}/edit", h.EditForm)
		r.Post("/{id}/edit", h.Update)
		r.Post("/{id}/delete", h.Delete)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermFinanceView))
		r.Get("/", h.List)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filters := parseFilters(r.URL.Query())
	listing, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.page.ServerError(w, r, "list expenses failed", err)
		return
	}
	opts, err := h.service.FormOptions(r.Context())
	if err != nil {
		h.logger.Warn("load expense filters", slog.Any("error", err))
	}
	month := ""
	if filters.Month != nil {
		month = filters.Month.Format(monthLayout)
	}
	h.page.Render(w, r, "pages/expenses/list.html", "Gastos", map[string]any{
		"Listing":    listing,
		"Filters":    filters,
		"Month":      month,
		"Options":    opts,
		"Pagination": shared.NewPagination(filters.Page, filters.Limit, listing.Total),
	}, http.StatusOK)
}

// Form renders the new-expense form. The query string may prefill the
// description and value, and carry the e-mail being converted.
func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	e := Expense{
		Description:   strings.TrimSpace(q.Get("descricao")),
		ExpenseDate:   time.Now(),
		PaymentMethod: defaultPaymentMethod,
		Installments:  1,
	}
	if v, err := shared.ParseMoney(q.Get("valor")); err == nil {
		e.Value = v
	}
	e.CategoryID, _ = shared.ParseID(q.Get("categoria_id"))
	e.StageID, _ = shared.ParseOptionalID(q.Get("etapa_id"))
	emailID, _ := shared.ParseOptionalID(q.Get("email_id"))
	h.renderForm(w, r, e, emailID, map[string]string{}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	e, errs := expenseFromForm(r)
	emailID, _ := shared.ParseOptionalID(r.PostFormValue("email_id"))
	n, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("installments")))
	if err != nil || n < 1 || n > maxInstallments {
		errs["installments"] = fieldMessages["Installments"]
	}
	e.Installments = n
	if len(errs) > 0 {
		h.renderForm(w, r, e, emailID, errs, http.StatusBadRequest)
		return
	}
	created, err := h.service.Create(r.Context(), CreateInput{
		Expense:      e,
		Installments: n,
		ActorID:      shared.UserIDFromContext(r.Context()),
		EmailID:      emailID,
	})
	if err != nil {
		h.formError(w, r, e, emailID, err)
		return
	}
	msg := "Gasto registrado"
	if len(created) > 1 {
		msg = "Gasto registrado em " + strconv.Itoa(len(created)) + " parcelas"
	}
	h.page.RedirectWithFlash(w, r, basePath, "success", msg)
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.page.NotFound(w, r)
		return
	}
	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.page.NotFound(w, r)
			return
		}
		h.page.ServerError(w, r, "get expense failed", err)
		return
	}
	h.renderForm(w, r, detail.Expense, nil, map[string]string{}, http.StatusOK)
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
	e, errs := expenseFromForm(r)
	e.ID = id
	if len(errs) > 0 {
		h.renderForm(w, r, e, nil, errs, http.StatusBadRequest)
		return
	}
	if err := h.service.Update(r.Context(), id, e, shared.UserIDFromContext(r.Context())); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.page.NotFound(w, r)
			return
		}
		h.formError(w, r, e, nil, err)
		return
	}
	h.page.RedirectWithFlash(w, r, basePath, "success", "Gasto atualizado")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.page.NotFound(w, r)
		return
	}
	if err := h.service.Delete(r.Context(), id, shared.UserIDFromContext(r.Context())); err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("delete expense failed", slog.Any("error", err), slog.Int64("id", id))
		}
		h.page.RedirectWithFlash(w, r, basePath, "error", shared.UserSafeMessage(err))
		return
	}
	h.page.RedirectWithFlash(w, r, basePath, "success", "Gasto removido")
}

func (h *Handler) formError(w http.ResponseWriter, r *http.Request, e Expense, emailID *int64, err error) {
	if !errors.Is(err, shared.ErrValidation) {
		h.logger.Error("save expense failed", slog.Any("error", err))
	}
	h.renderForm(w, r, e, emailID, shared.FormErrors(err), http.StatusBadRequest)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, e Expense, emailID *int64, errs map[string]string, status int) {
	title := "Novo gasto"
	if e.ID > 0 {
		title = "Editar gasto"
	}
	opts, err := h.service.FormOptions(r.Context())
	if err != nil {
		h.logger.Error("load expense form options", slog.Any("error", err))
		opts = lookups.Bundle{}
		if _, ok := errs["general"]; !ok {
			errs["general"] = "Não foi possível carregar categorias, etapas e fornecedores"
		}
	}
	h.page.Render(w, r, "pages/expenses/form.html", title, map[string]any{
		"Errors":         errs,
		"Expense":        e,
		"EmailID":        emailID,
		"Options":        opts,
		"PaymentMethods": PaymentMethods(),
		"NoCategories":   err == nil && len(opts.Categories) == 0,
	}, status)
}

func parseFilters(q url.Values) Filters {
	base := shared.ParseListFilters(q, 30)
	f := Filters{Search: base.Search, Page: base.Page, Limit: base.Limit}
	f.CategoryID, _ = shared.ParseOptionalID(q.Get("categoria_id"))
	f.StageID, _ = shared.ParseOptionalID(q.Get("etapa_id"))
	f.SupplierID, _ = shared.ParseOptionalID(q.Get("fornecedor_id"))
	if raw := strings.TrimSpace(q.Get("mes")); raw != "" {
		if m, err := time.ParseInLocation(monthLayout, raw, time.UTC); err == nil {
			f.Month = &m
		}
	}
	return f
}

func expenseFromForm(r *http.Request) (Expense, map[string]string) {
	errs := map[string]string{}
	e := Expense{
		Description:   r.PostFormValue("description"),
		PaymentMethod: r.PostFormValue("payment_method"),
		InvoiceNumber: r.PostFormValue("invoice_number"),
	}
	var err error
	if e.Value, err = shared.ParseMoney(r.PostFormValue("value")); err != nil {
		errs["value"] = "Valor inválido"
	}
	if e.CategoryID, err = shared.ParseID(r.PostFormValue("category_id")); err != nil {
		errs["category_id"] = fieldMessages["CategoryID"]
	}
	if e.StageID, err = shared.ParseOptionalID(r.PostFormValue("stage_id")); err != nil {
		errs["stage_id"] = fieldMessages["StageID"]
	}
	if e.SupplierID, err = shared.ParseOptionalID(r.PostFormValue("supplier_id")); err != nil {
		errs["supplier_id"] = fieldMessages["SupplierID"]
	}
	date, err := shared.ParseOptionalDate(r.PostFormValue("expense_date"))
	switch {
	case err != nil:
		errs["expense_date"] = "Data inválida"
	case date == nil:
		errs["expense_date"] = fieldMessages["ExpenseDate"]
	default:
		e.ExpenseDate = *date
	}
	return e, errs
}
