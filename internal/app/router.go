package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/betterfly/betterfly/internal/auth"
	"github.com/betterfly/betterfly/internal/catalog"
	"github.com/betterfly/betterfly/internal/observability"
	"github.com/betterfly/betterfly/internal/platform/httpx"
	"github.com/betterfly/betterfly/internal/progress"
	"github.com/betterfly/betterfly/internal/reminders"
	"github.com/betterfly/betterfly/internal/settings"
	"github.com/betterfly/betterfly/internal/users"
	"github.com/betterfly/betterfly/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	AuthHandler      *auth.Handler
	AuthMiddleware   auth.Middleware
	UsersHandler     *users.Handler
	CatalogHandler   *catalog.Handler
	ProgressHandler  *progress.Handler
	SettingsHandler  *settings.Handler
	RemindersHandler *reminders.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with Betterfly defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
		Session: params.AuthMiddleware.LoadSession,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/catalog", params.CatalogHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(params.AuthMiddleware.RequireUser)
		params.UsersHandler.MountRoutes(r)
		params.ProgressHandler.MountRoutes(r)
		r.Route("/settings", func(r chi.Router) {
			params.SettingsHandler.MountRoutes(r)
			params.RemindersHandler.MountRoutes(r)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(params.AuthMiddleware.RequireAdmin)
		params.UsersHandler.MountAdminRoutes(r)
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
