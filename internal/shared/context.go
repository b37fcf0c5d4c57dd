package shared

import "context"

type sessionContextKey struct{}

type userContextKey struct{}

// CurrentUser is the authenticated principal attached to a request.
type CurrentUser struct {
	ID    int64
	Name  string
	Email string
	Role  string
}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ContextWithUser stores the revalidated user in context.
func ContextWithUser(ctx context.Context, user CurrentUser) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (CurrentUser, bool) {
	user, ok := ctx.Value(userContextKey{}).(CurrentUser)
	return user, ok && user.ID > 0
}

// UserIDFromContext returns the authenticated user ID or zero.
func UserIDFromContext(ctx context.Context) int64 {
	user, _ := UserFromContext(ctx)
	return user.ID
}
