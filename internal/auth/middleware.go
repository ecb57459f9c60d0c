package auth

import (
	"log/slog"
	"net/http"

	"github.com/betterfly/betterfly/internal/platform/httpx"
	"github.com/betterfly/betterfly/internal/shared"
)

// Middleware wires session loading and access checks for HTTP handlers.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// LoadSession puts the logged in email into the request context. Requests
// without an active session pass through unchanged.
func (m Middleware) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.Service.Session(r.Context())
		if err != nil {
			m.logger().Error("load auth session", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		if sess.Active() {
			r = r.WithContext(shared.ContextWithUserEmail(r.Context(), sess.Email()))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser rejects requests without a logged in user.
func (m Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := shared.UserEmailFromContext(r.Context()); !ok {
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests unless the logged in user has the admin role.
func (m Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.Service.CurrentUser(r.Context())
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		if !user.IsAdmin() {
			m.logger().Warn("admin access denied", slog.String("email", user.Email), slog.String("path", r.URL.Path))
			httpx.RespondError(w, shared.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithUserEmail(r.Context(), user.Email)))
	})
}

func (m Middleware) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.Default()
	}
	return m.Logger
}
