package documents

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obra-dashboard/obra/internal/lookups"
	"github.com/obra-dashboard/obra/internal/platform/storage"
	"github.com/obra-dashboard/obra/internal/rbac"
	"github.com/obra-dashboard/obra/internal/shared"
	"github.com/obra-dashboard/obra/internal/testing/webtest"
)

func newTestHandler(t *testing.T) (*webtest.Env, *memoryRepo, *storage.Memory, func(chi.Router)) {
	env := webtest.NewEnv(t)
	repo := newMemoryRepo()
	store := storage.NewMemory()
	src := lookups.Static{StageOptions: []shared.Option{{ID: 4, Name: "Estrutura"}}}
	h := NewHandler(env.Logger, NewService(repo, store, src, env.Logger), env.Templates, env.CSRF, rbac.Middleware{})
	return env, repo, store, h.MountRoutes
}

func multipartRequest(t *testing.T, fields map[string]string, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadDocument(t *testing.T) {
	env, repo, store, mount := newTestHandler(t)

	req := multipartRequest(t, map[string]string{"title": "Projeto estrutural", "category": "Projeto", "stage_id": "4"}, "estrutural.pdf", "%PDF-1.7")
	res := env.Do(t, mount, req, webtest.Editor)

	require.Equal(t, http.StatusSeeOther, res.Code)
	require.Len(t, repo.rows, 1)
	doc := repo.rows[1]
	assert.Equal(t, "Projeto estrutural", doc.Title)
	require.NotNil(t, doc.StageID)
	assert.Equal(t, int64(4), *doc.StageID)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, "Documento enviado", res.Flash().Message)
}

func TestUploadWithoutFile(t *testing.T) {
	env, repo, _, mount := newTestHandler(t)

	req := multipartRequest(t, map[string]string{"title": "Sem arquivo"}, "", "")
	res := env.Do(t, mount, req, webtest.Editor)

	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Contains(t, res.Body.String(), "Selecione um arquivo")
	assert.Empty(t, repo.rows)
}

func TestDownloadRedirectsToPresignedURL(t *testing.T) {
	env, _, _, mount := newTestHandler(t)
	req := multipartRequest(t, map[string]string{"title": "Memorial"}, "memorial.pdf", "%PDF")
	require.Equal(t, http.StatusSeeOther, env.Do(t, mount, req, webtest.Editor).Code)

	res := env.Serve(t, mount, http.MethodGet, "/1/download", nil, webtest.Viewer)
	assert.Equal(t, http.StatusFound, res.Code)
	assert.Contains(t, res.Header().Get("Location"), "memory://")

	res = env.Serve(t, mount, http.MethodGet, "/99/download", nil, webtest.Viewer)
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestViewerCannotUpload(t *testing.T) {
	env, _, _, mount := newTestHandler(t)

	req := multipartRequest(t, map[string]string{"title": "X"}, "x.txt", "x")
	res := env.Do(t, mount, req, webtest.Viewer)
	assert.Equal(t, http.StatusForbidden, res.Code)
}
