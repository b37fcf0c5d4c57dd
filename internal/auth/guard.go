package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/obra-dashboard/obra/internal/platform/httpx"
	"github.com/obra-dashboard/obra/internal/shared"
)

// LoginPath is where unauthenticated visitors are sent.
const LoginPath = "/login"

// HomePath is where authenticated visitors of the login page are sent.
const HomePath = "/dashboard"

// DefaultPublicPrefixes lists paths reachable without a session.
var DefaultPublicPrefixes = []string{LoginPath, "/static/", "/healthz", "/api/emails/inbound"}

// sessions are rewritten to the store at most this often to slide their expiry.
const touchInterval = time.Minute

// Revalidator checks that a session user is still allowed in.
type Revalidator interface {
	Revalidate(ctx context.Context, userID int64) (shared.CurrentUser, error)
}

// SessionGuard refreshes the session of every non-public request and keeps
// anonymous visitors out.
type SessionGuard struct {
	logger   *slog.Logger
	sessions *shared.SessionManager
	users    Revalidator
	public   []string
	now      func() time.Time
}

// NewSessionGuard builds the guard. Empty prefixes fall back to DefaultPublicPrefixes.
func NewSessionGuard(logger *slog.Logger, sessions *shared.SessionManager, users Revalidator, publicPrefixes ...string) *SessionGuard {
	if len(publicPrefixes) == 0 {
		publicPrefixes = DefaultPublicPrefixes
	}
	return &SessionGuard{logger: logger, sessions: sessions, users: users, public: publicPrefixes, now: time.Now}
}

// Middleware enforces authentication on non-public paths.
func (g *SessionGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		sess := shared.SessionFromContext(r.Context())
		userID := sessionUserID(sess)

		if path == LoginPath {
			if userID > 0 {
				if _, err := g.users.Revalidate(r.Context(), userID); err == nil {
					http.Redirect(w, r, HomePath, http.StatusSeeOther)
					return
				}
				g.sessions.Destroy(sess)
			}
			next.ServeHTTP(w, r)
			return
		}

		if g.isPublic(path) {
			next.ServeHTTP(w, r)
			return
		}

		if userID == 0 {
			g.deny(w, r)
			return
		}

		user, err := g.users.Revalidate(r.Context(), userID)
		if err != nil {
			if !errors.Is(err, shared.ErrInvalidCredentials) {
				g.logger.Error("revalidate session", slog.Any("error", err), slog.Int64("user_id", userID))
				if isAPI(path) {
					httpx.Error(w, http.StatusInternalServerError, "falha ao validar sessão")
					return
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			g.sessions.Destroy(sess)
			g.deny(w, r)
			return
		}

		if g.now().Sub(sess.RefreshedAt()) > touchInterval {
			sess.Touch()
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithUser(r.Context(), user)))
	})
}

func (g *SessionGuard) isPublic(path string) bool {
	for _, prefix := range g.public {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (g *SessionGuard) deny(w http.ResponseWriter, r *http.Request) {
	if isAPI(r.URL.Path) {
		httpx.Error(w, http.StatusUnauthorized, "não autenticado")
		return
	}
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

func isAPI(path string) bool {
	return strings.HasPrefix(path, "/api/")
}

func sessionUserID(sess *shared.Session) int64 {
	if sess == nil {
		return 0
	}
	id, err := strconv.ParseInt(strings.TrimSpace(sess.User()), 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}
