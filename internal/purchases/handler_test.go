package purchases

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obra-dashboard/obra/internal/lookups"
	"github.com/obra-dashboard/obra/internal/rbac"
	"github.com/obra-dashboard/obra/internal/shared"
	"github.com/obra-dashboard/obra/internal/testing/webtest"
)

var withSuppliers = lookups.Static{
	SupplierOptions: []shared.Option{{ID: 1, Name: "Depósito Central"}},
	CategoryOptions: []shared.Option{{ID: 2, Name: "Material"}},
	StageOptions:    []shared.Option{{ID: 3, Name: "Fundação"}},
}

func newTestHandler(t *testing.T, src lookups.Source) (*webtest.Env, *memoryRepo, func(chi.Router)) {
	env := webtest.NewEnv(t)
	repo := newMemoryRepo()
	repo.names[1] = "Depósito Central"
	h := NewHandler(env.Logger, NewService(repo, src), env.Templates, env.CSRF, rbac.Middleware{})
	return env, repo, h.MountRoutes
}

func TestNewFormWithoutSuppliersShowsFallback(t *testing.T) {
	env, _, mount := newTestHandler(t, lookups.Static{})

	res := env.Serve(t, mount, http.MethodGet, "/new", nil, webtest.Editor)
	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, "Cadastre um fornecedor primeiro")
	assert.NotContains(t, body, `name="supplier_id"`)
}

func TestNewFormListsOptions(t *testing.T) {
	env, _, mount := newTestHandler(t, withSuppliers)

	res := env.Serve(t, mount, http.MethodGet, "/new", nil, webtest.Editor)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "Depósito Central")
	assert.Contains(t, res.Body.String(), "Fundação")
}

func TestCreatePurchase(t *testing.T) {
	env, repo, mount := newTestHandler(t, withSuppliers)

	form := url.Values{
		"supplier_id":   {"1"},
		"category_id":   {"2"},
		"stage_id":      {""},
		"description":   {"Areia média"},
		"quantity":      {"3,5"},
		"unit":          {"m³"},
		"total_value":   {"R$ 612,50"},
		"purchase_date": {"2025-03-14"},
	}
	res := env.Serve(t, mount, http.MethodPost, "/", form, webtest.Editor)
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/compras/1", res.Header().Get("Location"))

	got := repo.rows[1]
	assert.Equal(t, "3.5", got.Quantity.String())
	assert.Equal(t, "612.50", got.TotalValue.StringFixed(2))
	assert.Nil(t, got.StageID)
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, int64(2), *got.CategoryID)
	require.NotNil(t, got.CreatedBy)
	assert.Equal(t, webtest.Editor.ID, *got.CreatedBy)
}

func TestCreatePurchaseInvalidValue(t *testing.T) {
	env, repo, mount := newTestHandler(t, withSuppliers)

	form := url.Values{"supplier_id": {"1"}, "description": {"Brita"}, "quantity": {"1"}, "total_value": {"abc"}, "purchase_date": {"2025-03-14"}}
	res := env.Serve(t, mount, http.MethodPost, "/", form, webtest.Editor)
	require.Equal(t, http.StatusBadRequest, res.Code)
	assert.Contains(t, res.Body.String(), "Valor inválido")
	assert.Empty(t, repo.rows)
}

func TestListAndMarkDelivered(t *testing.T) {
	env, repo, mount := newTestHandler(t, withSuppliers)
	created, err := repo.Create(t.Context(), validPurchase())
	require.NoError(t, err)

	res := env.Serve(t, mount, http.MethodGet, "/", nil, webtest.Viewer)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "Cimento CP-II 50kg")
	assert.Contains(t, res.Body.String(), "R$ 1.480,00")

	res = env.Serve(t, mount, http.MethodPost, "/1/entregue", url.Values{}, webtest.Editor)
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, StatusDelivered, repo.rows[created.ID].Status)
}
