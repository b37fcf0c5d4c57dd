package rbac

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/obra-dashboard/obra/internal/platform/httpx"
	"github.com/obra-dashboard/obra/internal/shared"
)

// Middleware wires RBAC authorization helpers for HTTP handlers. It relies on
// the user placed in the request context by the session guard.
type Middleware struct {
	Logger *slog.Logger
}

// RequireAny ensures the current user has at least one of the required permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	return m.require(func(role string) bool {
		for _, p := range normalized {
			if Can(role, p) {
				return true
			}
		}
		return len(normalized) == 0
	})
}

// RequireAll ensures the current user has all required permissions.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	return m.require(func(role string) bool {
		for _, p := range normalized {
			if !Can(role, p) {
				return false
			}
		}
		return true
	})
}

func (m Middleware) require(allowed func(role string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := shared.UserFromContext(r.Context())
			if ok && allowed(user.Role) {
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil {
				m.Logger.Warn("rbac denied", slog.String("path", r.URL.Path), slog.Int64("user_id", user.ID), slog.String("role", user.Role))
			}
			if strings.HasPrefix(r.URL.Path, "/api/") {
				httpx.Error(w, http.StatusForbidden, "acesso negado")
				return
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

func normalizePermissions(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	normalized := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		if _, seen := unique[p]; seen {
			continue
		}
		unique[p] = struct{}{}
		normalized = append(normalized, p)
	}
	return normalized
}
