package emails

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obra-dashboard/obra/internal/rbac"
	"github.com/obra-dashboard/obra/internal/testing/webtest"
)

func newInbound(t *testing.T, token string, queue *recordingQueue) http.Handler {
	t.Helper()
	env := webtest.NewEnv(t)
	h := NewInboundHandler(env.Logger, token, queue)
	h.newID = func() string { return "11111111-2222-3333-4444-555555555555" }
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func postInbound(h http.Handler, token string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, InboundPath, bytes.NewReader(body))
	if token != "" {
		req.Header.Set(TokenHeader, token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestInboundAcceptsAndEnqueues(t *testing.T) {
	queue := &recordingQueue{}
	h := newInbound(t, "s3cret", queue)

	rec := postInbound(h, "s3cret", sampleMessage)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", body["id"])
	require.Len(t, queue.raws, 1)
	assert.Equal(t, sampleMessage, queue.raws[0])
}

func TestInboundRejectsBadToken(t *testing.T) {
	queue := &recordingQueue{}
	h := newInbound(t, "s3cret", queue)

	assert.Equal(t, http.StatusUnauthorized, postInbound(h, "wrong", sampleMessage).Code)
	assert.Equal(t, http.StatusUnauthorized, postInbound(h, "", sampleMessage).Code)
	assert.Empty(t, queue.ids)

	unset := newInbound(t, "", queue)
	assert.Equal(t, http.StatusUnauthorized, postInbound(unset, "", sampleMessage).Code)
}

func TestInboundLimitsAndFailures(t *testing.T) {
	queue := &recordingQueue{}
	h := newInbound(t, "s3cret", queue)

	assert.Equal(t, http.StatusBadRequest, postInbound(h, "s3cret", nil).Code)
	big := bytes.Repeat([]byte("a"), MaxMessageSize+1)
	assert.Equal(t, http.StatusRequestEntityTooLarge, postInbound(h, "s3cret", big).Code)

	queue.err = errDown
	rec := postInbound(h, "s3cret", sampleMessage)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}

func newPagesHandler(t *testing.T) (*webtest.Env, *Service, func(chi.Router)) {
	env := webtest.NewEnv(t)
	svc := NewService(newMemoryRepo(), nil, env.Logger)
	h := NewHandler(env.Logger, svc, env.Templates, env.CSRF, rbac.Middleware{})
	return env, svc, h.MountRoutes
}

func TestEmailPages(t *testing.T) {
	env, svc, mount := newPagesHandler(t)
	_, _, err := svc.Ingest(t.Context(), sampleMessage)
	require.NoError(t, err)

	res := env.Serve(t, mount, http.MethodGet, "/", nil, webtest.Editor)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "NF 555 - Tintas")

	res = env.Serve(t, mount, http.MethodGet, "/1", nil, webtest.Editor)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "Valor R$ 830,00")

	res = env.Serve(t, mount, http.MethodPost, "/1/converter", url.Values{}, webtest.Editor)
	require.Equal(t, http.StatusSeeOther, res.Code)
	loc := res.Header().Get("Location")
	assert.True(t, strings.HasPrefix(loc, "/gastos/new?"))
	assert.Contains(t, loc, "email_id=1")

	res = env.Serve(t, mount, http.MethodPost, "/1/ignorado", url.Values{}, webtest.Editor)
	require.Equal(t, http.StatusSeeOther, res.Code)
	e, err := svc.Get(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, StatusIgnored, e.Status)
}

func TestViewerCannotSeeEmails(t *testing.T) {
	env, _, mount := newPagesHandler(t)
	res := env.Serve(t, mount, http.MethodGet, "/", nil, webtest.Viewer)
	assert.Equal(t, http.StatusForbidden, res.Code)
}
