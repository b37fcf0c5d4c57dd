package suppliers

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obra-dashboard/obra/internal/rbac"
	"github.com/obra-dashboard/obra/internal/testing/webtest"
)

func newTestHandler(t *testing.T) (*webtest.Env, *memoryRepo, func(chi.Router)) {
	env := webtest.NewEnv(t)
	repo := newMemoryRepo()
	h := NewHandler(env.Logger, NewService(repo), env.Templates, env.CSRF, rbac.Middleware{})
	return env, repo, h.MountRoutes
}

func TestListRendersSuppliers(t *testing.T) {
	env, repo, mount := newTestHandler(t)
	repo.rows[1] = Supplier{ID: 1, Name: "Casa do Construtor", ServiceType: "Material"}

	res := env.Serve(t, mount, http.MethodGet, "/", nil, webtest.Viewer)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "Casa do Construtor")
}

func TestCreateRedirectsWithFlash(t *testing.T) {
	env, repo, mount := newTestHandler(t)

	form := url.Values{"name": {"Eletro Silva"}, "email": {"contato@eletro.com"}}
	res := env.Serve(t, mount, http.MethodPost, "/", form, webtest.Editor)

	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/fornecedores/1", res.Header().Get("Location"))
	assert.Equal(t, "Eletro Silva", repo.rows[1].Name)
	flash := res.Flash()
	require.NotNil(t, flash)
	assert.Equal(t, "success", flash.Kind)
}

func TestCreateInvalidRerendersForm(t *testing.T) {
	env, _, mount := newTestHandler(t)

	res := env.Serve(t, mount, http.MethodPost, "/", url.Values{"name": {""}}, webtest.Editor)
	require.Equal(t, http.StatusBadRequest, res.Code)
	assert.Contains(t, res.Body.String(), "Nome do fornecedor é obrigatório")
}

func TestViewerCannotCreate(t *testing.T) {
	env, repo, mount := newTestHandler(t)

	res := env.Serve(t, mount, http.MethodPost, "/", url.Values{"name": {"X"}}, webtest.Viewer)
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Empty(t, repo.rows)
}

func TestDeleteInUseFlashesError(t *testing.T) {
	env, repo, mount := newTestHandler(t)
	repo.rows[4] = Supplier{ID: 4, Name: "Concreteira"}
	repo.inUse[4] = true

	res := env.Serve(t, mount, http.MethodPost, "/4/delete", url.Values{}, webtest.Editor)
	require.Equal(t, http.StatusSeeOther, res.Code)
	flash := res.Flash()
	require.NotNil(t, flash)
	assert.Equal(t, "error", flash.Kind)
	assert.Contains(t, flash.Message, "em uso")
	assert.Contains(t, repo.rows, int64(4))
}

func TestShowMissingIsNotFound(t *testing.T) {
	env, _, mount := newTestHandler(t)
	res := env.Serve(t, mount, http.MethodGet, "/99", nil, webtest.Viewer)
	assert.Equal(t, http.StatusNotFound, res.Code)
}
