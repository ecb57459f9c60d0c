package shared

import "context"

type userEmailContextKey struct{}

// ContextWithUserEmail stores the authenticated user's email in context.
func ContextWithUserEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, userEmailContextKey{}, email)
}

// UserEmailFromContext extracts the authenticated user's email from context.
func UserEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(userEmailContextKey{}).(string)
	return email, ok && email != ""
}
