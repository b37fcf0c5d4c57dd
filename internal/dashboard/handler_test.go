package dashboard

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obra-dashboard/obra/internal/rbac"
	"github.com/obra-dashboard/obra/internal/testing/webtest"
)

func TestDashboardPage(t *testing.T) {
	env := webtest.NewEnv(t)
	svc := NewService(allSources(&fakeNotifications{}), env.Logger)
	h := NewHandler(env.Logger, svc, env.Templates, env.CSRF, rbac.Middleware{})

	res := env.Serve(t, h.MountRoutes, http.MethodGet, "/", nil, webtest.Viewer)
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, Path, res.Header().Get("Location"))

	res = env.Serve(t, h.MountRoutes, http.MethodGet, Path, nil, webtest.Editor)
	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, "Vistoria da laje")
	assert.Contains(t, body, "Entrega confirmada")
	assert.Contains(t, body, "Cimento")
	assert.Contains(t, body, "2 e-mail(s) aguardando triagem")
	assert.Contains(t, body, "<svg")

	// Viewers read finance but do not triage e-mail.
	res = env.Serve(t, h.MountRoutes, http.MethodGet, Path, nil, webtest.Viewer)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "Cimento")
	assert.NotContains(t, res.Body.String(), "aguardando triagem")
}

func TestDashboardRequiresUser(t *testing.T) {
	env := webtest.NewEnv(t)
	h := NewHandler(env.Logger, NewService(Sources{}, env.Logger), env.Templates, env.CSRF, rbac.Middleware{})

	res := env.Serve(t, h.MountRoutes, http.MethodGet, Path, nil, nil)
	assert.Equal(t, http.StatusForbidden, res.Code)
}
