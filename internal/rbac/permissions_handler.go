package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/obra-dashboard/obra/internal/shared"
	"github.com/obra-dashboard/obra/internal/view"
)

// PermissionsHandler shows the role to permission matrix.
type PermissionsHandler struct {
	page view.Page
	rbac Middleware
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, templates *view.Engine, csrf *shared.CSRFManager, rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{page: view.Page{Logger: logger, Templates: templates, CSRF: csrf}, rbac: rbac}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermUsersManage))
		r.Get("/", h.listPermissions)
	})
}

// MatrixRow is one permission with the roles that hold it.
type MatrixRow struct {
	Permission string
	Granted    []bool
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	roles := Roles()
	rows := make([]MatrixRow, 0, len(shared.AllScopes()))
	for _, perm := range shared.AllScopes() {
		row := MatrixRow{Permission: perm, Granted: make([]bool, len(roles))}
		for i, role := range roles {
			row.Granted[i] = Can(role, perm)
		}
		rows = append(rows, row)
	}
	h.page.Render(w, r, "pages/users/permissions.html", "Permissões", map[string]any{
		"Roles": roles,
		"Rows":  rows,
	}, http.StatusOK)
}
