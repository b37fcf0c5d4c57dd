package finance

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/obra-dashboard/obra/internal/platform/httpx"
	"github.com/obra-dashboard/obra/internal/rbac"
	"github.com/obra-dashboard/obra/internal/shared"
	"github.com/obra-dashboard/obra/internal/view"
)

const (
	errMissingParams = "categoria_id e etapa_id são obrigatórios"
	errInvalidParams = "categoria_id e etapa_id devem ser números inteiros positivos"
	errDetailsFailed = "Erro ao carregar gastos"
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

// MountRoutes registers the finance page, the CSV export and the details API
// on the root router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermFinanceView))
		r.Get("/financeiro", h.Overview)
		r.Get("/financeiro/export.csv", h.ExportCSV)
		r.Get("/api/financeiro/gastos-detalhes", h.ExpenseDetails)
	})
}

func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{}
	ov, err := h.service.Overview(r.Context())
	if err != nil {
		h.logger.Error("finance overview failed", slog.Any("error", err))
		data["Unavailable"] = true
	} else {
		data["Overview"] = ov
	}
	h.page.Render(w, r, "pages/finance/overview.html", "Financeiro", data, http.StatusOK)
}

func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.ExportCSV(r.Context(), &buf); err != nil {
		h.page.ServerError(w, r, "finance export failed", err)
		return
	}
	name := "orcamento-" + time.Now().Format("2006-01-02") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	_, _ = buf.WriteTo(w)
}

type expenseJSON struct {
	ID               int64   `json:"id"`
	Descricao        string  `json:"descricao"`
	Valor            float64 `json:"valor"`
	Data             string  `json:"data"`
	FormaPagamento   string  `json:"forma_pagamento"`
	NotaFiscalNumero *string `json:"nota_fiscal_numero"`
	ParcelaAtual     *int    `json:"parcela_atual"`
	Parcelas         int     `json:"parcelas"`
	FornecedorNome   *string `json:"fornecedor_nome"`
	CriadoPorNome    *string `json:"criado_por_nome"`
}

type detailsJSON struct {
	Gastos []expenseJSON `json:"gastos"`
	Total  float64       `json:"total"`
}

func (h *Handler) ExpenseDetails(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rawCategory, rawStage := strings.TrimSpace(q.Get("categoria_id")), strings.TrimSpace(q.Get("etapa_id"))
	if rawCategory == "" || rawStage == "" {
		httpx.Error(w, http.StatusBadRequest, errMissingParams)
		return
	}
	categoryID, err1 := strconv.ParseInt(rawCategory, 10, 64)
	stageID, err2 := strconv.ParseInt(rawStage, 10, 64)
	if err1 != nil || err2 != nil || categoryID <= 0 || stageID <= 0 {
		httpx.Error(w, http.StatusBadRequest, errInvalidParams)
		return
	}

	details, err := h.service.ExpenseDetails(r.Context(), categoryID, stageID)
	if err != nil {
		h.logger.Error("expense details failed", slog.Any("error", err),
			slog.Int64("categoria_id", categoryID), slog.Int64("etapa_id", stageID))
		httpx.RespondError(w, err, errDetailsFailed)
		return
	}

	out := detailsJSON{Gastos: make([]expenseJSON, 0, len(details.Lines)), Total: details.Total.InexactFloat64()}
	for _, l := range details.Lines {
		out.Gastos = append(out.Gastos, expenseJSON{
			ID:               l.ID,
			Descricao:        l.Description,
			Valor:            l.Value.InexactFloat64(),
			Data:             l.Date.Format("2006-01-02"),
			FormaPagamento:   l.PaymentMethod,
			NotaFiscalNumero: l.InvoiceNumber,
			ParcelaAtual:     l.Installment,
			Parcelas:         l.Installments,
			FornecedorNome:   l.SupplierName,
			CriadoPorNome:    l.CreatedByName,
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}
