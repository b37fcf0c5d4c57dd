package finance

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obra-dashboard/obra/internal/rbac"
	"github.com/obra-dashboard/obra/internal/testing/webtest"
)

func newTestHandler(t *testing.T, repo *memoryRepo) (*webtest.Env, func(chi.Router)) {
	env := webtest.NewEnv(t)
	svc := NewService(repo, testSource(), staticReport{}, NewCache(env.Redis, time.Minute), env.Logger)
	h := NewHandler(env.Logger, svc, env.Templates, env.CSRF, rbac.Middleware{})
	return env, h.MountRoutes
}

func decodeBody(t *testing.T, res webtest.Result) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	return body
}

func TestExpenseDetailsRequiresBothParams(t *testing.T) {
	env, mount := newTestHandler(t, &memoryRepo{})

	for _, target := range []string{
		"/api/financeiro/gastos-detalhes",
		"/api/financeiro/gastos-detalhes?categoria_id=1",
		"/api/financeiro/gastos-detalhes?etapa_id=2",
	} {
		res := env.Serve(t, mount, http.MethodGet, target, nil, webtest.Viewer)
		assert.Equal(t, http.StatusBadRequest, res.Code, target)
		assert.Equal(t, errMissingParams, decodeBody(t, res)["error"], target)
	}
}

func TestExpenseDetailsRejectsNonNumericParams(t *testing.T) {
	env, mount := newTestHandler(t, &memoryRepo{})

	res := env.Serve(t, mount, http.MethodGet, "/api/financeiro/gastos-detalhes?categoria_id=abc&etapa_id=2", nil, webtest.Viewer)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, errInvalidParams, decodeBody(t, res)["error"])

	res = env.Serve(t, mount, http.MethodGet, "/api/financeiro/gastos-detalhes?categoria_id=1&etapa_id=0", nil, webtest.Viewer)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestExpenseDetailsFailure(t *testing.T) {
	env, mount := newTestHandler(t, &memoryRepo{err: errors.New("db down")})

	res := env.Serve(t, mount, http.MethodGet, "/api/financeiro/gastos-detalhes?categoria_id=1&etapa_id=10", nil, webtest.Viewer)
	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.Equal(t, errDetailsFailed, decodeBody(t, res)["error"])
}

func TestExpenseDetailsSuccess(t *testing.T) {
	installment := 2
	repo := &memoryRepo{lines: map[[2]int64][]ExpenseLine{
		{1, 10}: {
			{
				ID: 7, Description: "Cimento CP-II", Value: money("1480.00"),
				Date: time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), PaymentMethod: "pix",
				InvoiceNumber: strPtr("NF-88"), Installment: &installment, Installments: 3,
				SupplierName: strPtr("Casa do Construtor"), CreatedByName: strPtr("Admin"),
			},
			{ID: 8, Description: "Areia", Value: money("320.25"), Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), PaymentMethod: "dinheiro", Installments: 1},
		},
	}}
	env, mount := newTestHandler(t, repo)

	res := env.Serve(t, mount, http.MethodGet, "/api/financeiro/gastos-detalhes?categoria_id=1&etapa_id=10", nil, webtest.Viewer)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "application/json", res.Header().Get("Content-Type"))
	assert.Equal(t, [2]int64{1, 10}, repo.lastPair)

	body := decodeBody(t, res)
	assert.InDelta(t, 1800.25, body["total"], 0.001)
	gastos := body["gastos"].([]any)
	require.Len(t, gastos, 2)
	first := gastos[0].(map[string]any)
	assert.Equal(t, float64(7), first["id"])
	assert.Equal(t, "Cimento CP-II", first["descricao"])
	assert.InDelta(t, 1480.0, first["valor"], 0.001)
	assert.Equal(t, "2025-03-05", first["data"])
	assert.Equal(t, "pix", first["forma_pagamento"])
	assert.Equal(t, "NF-88", first["nota_fiscal_numero"])
	assert.Equal(t, float64(2), first["parcela_atual"])
	assert.Equal(t, float64(3), first["parcelas"])
	assert.Equal(t, "Casa do Construtor", first["fornecedor_nome"])
	assert.Equal(t, "Admin", first["criado_por_nome"])
	second := gastos[1].(map[string]any)
	assert.Nil(t, second["fornecedor_nome"])
	assert.Nil(t, second["parcela_atual"])
}

func TestExpenseDetailsEmptyListIsArray(t *testing.T) {
	env, mount := newTestHandler(t, &memoryRepo{})

	res := env.Serve(t, mount, http.MethodGet, "/api/financeiro/gastos-detalhes?categoria_id=1&etapa_id=10", nil, webtest.Viewer)
	require.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"gastos":[],"total":0}`, res.Body.String())
}

func TestOverviewPage(t *testing.T) {
	repo := &memoryRepo{amounts: []Amount{{CategoryID: 1, StageID: nil, Budget: money("500"), Spent: money("125")}}}
	env, mount := newTestHandler(t, repo)

	res := env.Serve(t, mount, http.MethodGet, "/financeiro", nil, webtest.Viewer)
	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, "Material")
	assert.Contains(t, body, NoStage)
	assert.Contains(t, body, "R$ 125,00")
	assert.Contains(t, body, `class="no-details"`)
	assert.Contains(t, body, "não tem detalhamento")
	assert.NotContains(t, body, "etapa_id=0")
}

func TestOverviewPageDegrades(t *testing.T) {
	env, mount := newTestHandler(t, &memoryRepo{err: errors.New("db down")})

	res := env.Serve(t, mount, http.MethodGet, "/financeiro", nil, webtest.Viewer)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "Não foi possível carregar o resumo financeiro")
}

func TestExportCSVHeaders(t *testing.T) {
	env, mount := newTestHandler(t, &memoryRepo{})

	res := env.Serve(t, mount, http.MethodGet, "/financeiro/export.csv", nil, webtest.Viewer)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "text/csv; charset=utf-8", res.Header().Get("Content-Type"))
	assert.Contains(t, res.Header().Get("Content-Disposition"), "attachment")
}

func TestFinanceRequiresPermission(t *testing.T) {
	env, mount := newTestHandler(t, &memoryRepo{})

	res := env.Serve(t, mount, http.MethodGet, "/financeiro", nil, nil)
	assert.Equal(t, http.StatusForbidden, res.Code)
}
