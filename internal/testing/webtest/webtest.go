// Package webtest wires sessions, CSRF and templates for handler tests and
// flips the process into test mode.
package webtest

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/obra-dashboard/obra/internal/shared"
	"github.com/obra-dashboard/obra/internal/view"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("OBRA_TEST_MODE") == "" {
			_ = os.Setenv("OBRA_TEST_MODE", "1")
		}
	})
}

// Users with each role, for requests that need an authenticated principal.
var (
	Admin  = &shared.CurrentUser{ID: 1, Name: "Admin", Email: "admin@obra.local", Role: "admin"}
	Editor = &shared.CurrentUser{ID: 2, Name: "Edu", Email: "edu@obra.local", Role: "editor"}
	Viewer = &shared.CurrentUser{ID: 3, Name: "Vera", Email: "vera@obra.local", Role: "viewer"}
)

// Env bundles the HTTP collaborators shared by feature handlers.
type Env struct {
	Logger    *slog.Logger
	Templates *view.Engine
	CSRF      *shared.CSRFManager
	Sessions  *shared.SessionManager
	Redis     *redis.Client
	Miniredis *miniredis.Miniredis
}

// NewEnv starts an in-process redis and parses templates.
func NewEnv(t *testing.T) *Env {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	templates, err := view.NewEngine()
	require.NoError(t, err)
	return &Env{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Templates: templates,
		CSRF:      shared.NewCSRFManager("csrfsecret"),
		Sessions:  shared.NewSessionManager(client, "obra_session", time.Hour, false),
		Redis:     client,
		Miniredis: mr,
	}
}

// Page returns a renderer bound to the env.
func (e *Env) Page() view.Page {
	return view.Page{Logger: e.Logger, Templates: e.Templates, CSRF: e.CSRF}
}

// Result is the outcome of Serve.
type Result struct {
	*httptest.ResponseRecorder
	Session *shared.Session
}

// Flash pops the first queued flash message, if any.
func (r Result) Flash() *shared.FlashMessage {
	return r.Session.PopFlash()
}

// Serve mounts routes on a fresh chi router and performs one request as
// user. A nil form sends no body; a nil user is anonymous.
func (e *Env) Serve(t *testing.T, mount func(chi.Router), method, target string, form url.Values, user *shared.CurrentUser) Result {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return e.Do(t, mount, req, user)
}

// Do is Serve for a prepared request.
func (e *Env) Do(t *testing.T, mount func(chi.Router), req *http.Request, user *shared.CurrentUser) Result {
	t.Helper()
	sess, err := e.Sessions.Load(context.Background(), req)
	require.NoError(t, err)

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.ContextWithSession(r.Context(), sess)
			if user != nil {
				sess.SetUser(strconv.FormatInt(user.ID, 10))
				ctx = shared.ContextWithUser(ctx, *user)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	mount(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return Result{ResponseRecorder: rec, Session: sess}
}
