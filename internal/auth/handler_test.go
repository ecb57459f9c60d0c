package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betterfly/betterfly/internal/auth"
	"github.com/betterfly/betterfly/internal/platform/kv"
	"github.com/betterfly/betterfly/internal/shared"
	"github.com/betterfly/betterfly/internal/users"
	_ "github.com/betterfly/betterfly/testing"
)

func newAuthRouter(t *testing.T) (http.Handler, authFixture) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	f := newAuthFixture(t, kv.NewRedisStore(client, "test:"))

	mw := auth.Middleware{Service: f.service}
	r := chi.NewRouter()
	r.Use(mw.LoadSession)
	r.Route("/auth", auth.NewHandler(nil, f.service, nil).MountRoutes)
	r.With(mw.RequireUser).Get("/private", func(w http.ResponseWriter, r *http.Request) {
		email, _ := shared.UserEmailFromContext(r.Context())
		_, _ = w.Write([]byte(email))
	})
	r.With(mw.RequireAdmin).Get("/admin", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r, f
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestRegisterEndpoint(t *testing.T) {
	router, _ := newAuthRouter(t)

	res := do(router, http.MethodPost, "/auth/register", `{"username":"Ana","email":"ana@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, res.Code)
	assert.NotContains(t, res.Body.String(), "secret1")

	res = do(router, http.MethodPost, "/auth/register", `{"username":"Ana","email":"ana@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusConflict, res.Code)

	res = do(router, http.MethodGet, "/auth/session", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"isLoggedIn":true,"userEmail":"ana@example.com"}`, res.Body.String())

	res = do(router, http.MethodGet, "/private", "")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "ana@example.com", res.Body.String())
}

func TestRegisterValidation(t *testing.T) {
	router, _ := newAuthRouter(t)

	res := do(router, http.MethodPost, "/auth/register", `{"username":"","email":"not-an-email","password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestLoginInvalidCredentialsEndpoint(t *testing.T) {
	router, f := newAuthRouter(t)
	_, err := f.service.Register(context.Background(), "Ana", "ana@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, f.service.Logout(context.Background()))

	res := do(router, http.MethodPost, "/auth/login", `{"email":"ana@example.com","password":"wrongpass"}`)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = do(router, http.MethodGet, "/private", "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLogoutEndpoint(t *testing.T) {
	router, f := newAuthRouter(t)
	_, err := f.service.Register(context.Background(), "Ana", "ana@example.com", "secret1")
	require.NoError(t, err)

	res := do(router, http.MethodPost, "/auth/logout", "")
	require.Equal(t, http.StatusNoContent, res.Code)

	res = do(router, http.MethodGet, "/auth/session", "")
	assert.JSONEq(t, `{"isLoggedIn":false,"userEmail":null}`, res.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	router, f := newAuthRouter(t)
	ctx := context.Background()

	res := do(router, http.MethodGet, "/admin", "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	_, err := f.service.Register(ctx, "Ana", "ana@example.com", "secret1")
	require.NoError(t, err)
	res = do(router, http.MethodGet, "/admin", "")
	assert.Equal(t, http.StatusForbidden, res.Code)

	admin := users.New("Admin", "admin@meditation.app", "admin123")
	admin.Role = shared.RoleAdmin
	require.NoError(t, f.repo.Save(ctx, admin))
	_, err = f.service.Login(ctx, "admin@meditation.app", "admin123")
	require.NoError(t, err)

	res = do(router, http.MethodGet, "/admin", "")
	assert.Equal(t, http.StatusNoContent, res.Code)
}
