package stages

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
	seedTree(repo)
	h := NewHandler(env.Logger, NewService(repo), env.Templates, env.CSRF, rbac.Middleware{})
	return env, repo, h.MountRoutes
}

func TestListShowsProgress(t *testing.T) {
	env, _, mount := newTestHandler(t)

	res := env.Serve(t, mount, http.MethodGet, "/etapas", nil, webtest.Viewer)
	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, "Fundação")
	assert.Contains(t, body, "33%")
}

func TestShowRendersTree(t *testing.T) {
	env, _, mount := newTestHandler(t)

	res := env.Serve(t, mount, http.MethodGet, "/etapas/1", nil, webtest.Viewer)
	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, "Sapatas")
	assert.Contains(t, body, "Concretagem")
	assert.Contains(t, body, "/tarefas/4/status")
}

func TestShowUnknownStage(t *testing.T) {
	env, _, mount := newTestHandler(t)
	res := env.Serve(t, mount, http.MethodGet, "/etapas/42", nil, webtest.Viewer)
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestToggleTaskRedirectsToStage(t *testing.T) {
	env, repo, mount := newTestHandler(t)

	res := env.Serve(t, mount, http.MethodPost, "/tarefas/4/status", url.Values{}, webtest.Editor)
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/etapas/1", res.Header().Get("Location"))
	assert.Equal(t, StatusInProgress, repo.tasks[4].Status)

	res = env.Serve(t, mount, http.MethodPost, "/tarefas/4/status", url.Values{"status": {StatusCompleted}}, webtest.Editor)
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, StatusCompleted, repo.tasks[4].Status)
}

func TestViewerCannotToggleTask(t *testing.T) {
	env, repo, mount := newTestHandler(t)

	res := env.Serve(t, mount, http.MethodPost, "/tarefas/4/status", url.Values{}, webtest.Viewer)
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, StatusPending, repo.tasks[4].Status)
}

func TestUpdateProgressValidatesRange(t *testing.T) {
	env, repo, mount := newTestHandler(t)

	res := env.Serve(t, mount, http.MethodPost, "/sub-etapas/2/progresso", url.Values{"progress": {"150"}}, webtest.Editor)
	require.Equal(t, http.StatusSeeOther, res.Code)
	flash := res.Flash()
	require.NotNil(t, flash)
	assert.Equal(t, "error", flash.Kind)
	assert.Nil(t, repo.subs[2].StoredProgress)

	res = env.Serve(t, mount, http.MethodPost, "/sub-etapas/2/progresso", url.Values{"progress": {"75"}}, webtest.Editor)
	require.Equal(t, http.StatusSeeOther, res.Code)
	require.NotNil(t, repo.subs[2].StoredProgress)
	assert.Equal(t, 75, *repo.subs[2].StoredProgress)
}

func TestCreateSubStageAndTask(t *testing.T) {
	env, repo, mount := newTestHandler(t)

	res := env.Serve(t, mount, http.MethodPost, "/etapas/1/sub-etapas", url.Values{"name": {"Baldrame"}, "position": {"2"}}, webtest.Editor)
	require.Equal(t, http.StatusSeeOther, res.Code)
	require.Contains(t, repo.subs, int64(6))
	assert.Equal(t, "Baldrame", repo.subs[6].Name)

	res = env.Serve(t, mount, http.MethodPost, "/sub-etapas/6/tarefas", url.Values{"title": {"Impermeabilizar"}, "due_date": {"2025-07-01"}}, webtest.Editor)
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/etapas/1", res.Header().Get("Location"))
	require.Contains(t, repo.tasks, int64(7))
	assert.Equal(t, StatusPending, repo.tasks[7].Status)
}

func TestCreateStageInvalidDate(t *testing.T) {
	env, _, mount := newTestHandler(t)

	res := env.Serve(t, mount, http.MethodPost, "/etapas", url.Values{"name": {"Reboco"}, "planned_start": {"amanhã"}}, webtest.Editor)
	require.Equal(t, http.StatusBadRequest, res.Code)
	assert.Contains(t, res.Body.String(), "Data inválida")
}

func TestDeleteStageInUse(t *testing.T) {
	env, repo, mount := newTestHandler(t)
	repo.inUse[1] = true

	res := env.Serve(t, mount, http.MethodPost, "/etapas/1/delete", url.Values{}, webtest.Editor)
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/etapas/1", res.Header().Get("Location"))
	assert.Contains(t, repo.stages, int64(1))
}
