package shared

// Permissions granted to roles.
const (
	PermObraView     = "obra.view"
	PermObraEdit     = "obra.edit"
	PermFinanceView  = "finance.view"
	PermFinanceEdit  = "finance.edit"
	PermUsersManage  = "users.manage"
	PermEmailsManage = "emails.manage"
)

// AllScopes lists every permission known to the application.
func AllScopes() []string {
	return []string{
		PermObraView,
		PermObraEdit,
		PermFinanceView,
		PermFinanceEdit,
		PermUsersManage,
		PermEmailsManage,
	}
}
