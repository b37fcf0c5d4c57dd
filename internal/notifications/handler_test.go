package notifications

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obra-dashboard/obra/internal/testing/webtest"
)

func newTestHandler(t *testing.T) (*webtest.Env, *Service, func(chi.Router)) {
	env := webtest.NewEnv(t)
	svc := NewService(newMemoryRepo(), nil, env.Logger)
	h := NewHandler(env.Logger, svc, env.Templates, env.CSRF)
	return env, svc, h.MountRoutes
}

func TestListShowsUnread(t *testing.T) {
	env, svc, mount := newTestHandler(t)
	_, err := svc.Notify(context.Background(), Message{Title: "Novo e-mail recebido", Link: "/emails/1"})
	require.NoError(t, err)

	res := env.Serve(t, mount, http.MethodGet, "/", nil, webtest.Viewer)
	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, "Novo e-mail recebido")
	assert.Contains(t, body, "Marcar todas como lidas (1)")
}

func TestMarkReadRedirectsToLink(t *testing.T) {
	env, svc, mount := newTestHandler(t)
	_, err := svc.Notify(context.Background(), Message{Title: "X", Link: "/emails/1"})
	require.NoError(t, err)

	res := env.Serve(t, mount, http.MethodPost, "/1/lida", url.Values{"next": {"/emails/1"}}, webtest.Viewer)
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/emails/1", res.Header().Get("Location"))

	count, _ := svc.UnreadCount(context.Background(), webtest.Viewer.ID)
	assert.Zero(t, count)
}

func TestMarkReadRejectsForeignRedirect(t *testing.T) {
	env, svc, mount := newTestHandler(t)
	_, err := svc.Notify(context.Background(), Message{Title: "X"})
	require.NoError(t, err)

	res := env.Serve(t, mount, http.MethodPost, "/1/lida", url.Values{"next": {"//evil.example"}}, webtest.Viewer)
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, basePath, res.Header().Get("Location"))
}

func TestMarkAllRead(t *testing.T) {
	env, svc, mount := newTestHandler(t)
	for i := 0; i < 3; i++ {
		_, err := svc.Notify(context.Background(), Message{Title: "X"})
		require.NoError(t, err)
	}

	res := env.Serve(t, mount, http.MethodPost, "/lidas", url.Values{}, webtest.Editor)
	require.Equal(t, http.StatusSeeOther, res.Code)
	count, _ := svc.UnreadCount(context.Background(), webtest.Editor.ID)
	assert.Zero(t, count)
}
