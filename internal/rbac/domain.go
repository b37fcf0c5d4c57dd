package rbac

import (
	"sort"

	"github.com/obra-dashboard/obra/internal/shared"
)

// Roles stored in users.role.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

var rolePermissions = map[string][]string{
	RoleAdmin: shared.AllScopes(),
	RoleEditor: {
		shared.PermObraView,
		shared.PermObraEdit,
		shared.PermFinanceView,
		shared.PermFinanceEdit,
		shared.PermEmailsManage,
	},
	RoleViewer: {
		shared.PermObraView,
		shared.PermFinanceView,
	},
}

// Roles returns the known roles in display order.
func Roles() []string {
	return []string{RoleAdmin, RoleEditor, RoleViewer}
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

// PermissionsFor returns the permissions granted to role, sorted.
func PermissionsFor(role string) []string {
	perms := append([]string(nil), rolePermissions[role]...)
	sort.Strings(perms)
	return perms
}

// Can reports whether role holds perm.
func Can(role, perm string) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}
