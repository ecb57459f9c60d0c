package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/betterfly/betterfly/internal/auth"
	"github.com/betterfly/betterfly/internal/catalog"
	jobmetrics "github.com/betterfly/betterfly/internal/jobs"
	"github.com/betterfly/betterfly/internal/observability"
	"github.com/betterfly/betterfly/internal/platform/clock"
	"github.com/betterfly/betterfly/internal/platform/kv"
	"github.com/betterfly/betterfly/internal/progress"
	"github.com/betterfly/betterfly/internal/reminders"
	"github.com/betterfly/betterfly/internal/settings"
	"github.com/betterfly/betterfly/internal/users"
	"github.com/betterfly/betterfly/jobs"
)

// Container holds the wired services shared by the server, worker and CLI.
type Container struct {
	Config  *Config
	Logger  *slog.Logger
	Store   kv.Store
	Clock   clock.Clock
	Metrics *observability.Metrics

	Users     *users.Repository
	UserAdmin *users.Service
	Auth      *auth.Service
	Catalog   *catalog.Static
	Lessons   *catalog.LessonRepository
	Progress  *progress.Service
	Theme     *settings.ThemeService
	Reminders *reminders.Service
	Mailer    reminders.Mailer

	JobsClient *jobs.Client
	Inspector  *asynq.Inspector
	JobMetrics *jobmetrics.Metrics
}

// OpenContainer opens the configured store and wires every service on it.
func OpenContainer(ctx context.Context, cfg *Config, logger *slog.Logger) (*Container, error) {
	store, err := kv.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return nil, err
	}
	c, err := NewContainer(cfg, logger, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return c, nil
}

// NewContainer wires services on an already opened store.
func NewContainer(cfg *Config, logger *slog.Logger, store kv.Store) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("app: config required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	clk := clock.NewSystem(cfg.Location)
	metrics := observability.NewMetrics()
	jobMetrics := jobmetrics.NewMetrics(metrics.Registerer())

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobsClient, err := jobs.NewClient(redisOpts, cfg.ReminderQueue)
	if err != nil {
		return nil, err
	}
	inspector := asynq.NewInspector(redisOpts)

	userRepo := users.NewRepository(store, logger)
	hasher := auth.NewHasher(cfg.BcryptCost)
	authService := auth.NewService(userRepo, auth.NewSessionStore(store, logger), hasher, logger)
	static := catalog.NewStatic()
	lessons := catalog.NewLessonRepository(store, logger)

	mailer := newMailer(cfg, logger)

	return &Container{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Clock:   clk,
		Metrics: metrics,
		Users:   userRepo,
		UserAdmin: users.NewService(userRepo, users.ServiceDeps{
			Store:    store,
			Hasher:   hasher,
			Sessions: authService,
			Lessons:  lessons,
			Logger:   logger,
		}),
		Auth:    authService,
		Catalog: static,
		Lessons: lessons,
		Progress: progress.NewService(progress.ServiceParams{
			Repo:     userRepo,
			Catalog:  static,
			Clock:    clk,
			Recorder: metrics,
			Logger:   logger,
		}),
		Theme: settings.NewThemeService(store, logger),
		Reminders: reminders.NewService(reminders.ServiceParams{
			Store:    store,
			Queue:    jobs.NewQueue(jobsClient, inspector),
			Notifier: reminders.LogNotifier{Logger: logger},
			Mailer:   mailer,
			Clock:    clk,
			Logger:   logger,
		}),
		Mailer:     mailer,
		JobsClient: jobsClient,
		Inspector:  inspector,
		JobMetrics: jobMetrics,
	}, nil
}

// Bootstrap applies the configured seeds: the admin account and the demo
// user with its lessons.
func (c *Container) Bootstrap(ctx context.Context) error {
	if c.Config.SeedAdminEmail != "" {
		if _, _, err := c.UserAdmin.EnsureAdmin(ctx, c.Config.SeedAdminEmail, c.Config.SeedAdminPassword); err != nil {
			return err
		}
	}
	if !c.Config.SeedDemoData {
		return nil
	}
	if _, err := c.UserAdmin.SeedDemo(ctx); err != nil {
		return err
	}
	return c.Lessons.SeedDemoLessons(ctx)
}

// RouterParams builds the handlers for NewRouter.
func (c *Container) RouterParams() RouterParams {
	return RouterParams{
		Logger:           c.Logger,
		Config:           c.Config,
		AuthHandler:      auth.NewHandler(c.Logger, c.Auth, c.Metrics),
		AuthMiddleware:   auth.Middleware{Service: c.Auth, Logger: c.Logger},
		UsersHandler:     users.NewHandler(c.Logger, c.UserAdmin),
		CatalogHandler:   catalog.NewHandler(c.Logger, c.Catalog, c.Lessons),
		ProgressHandler:  progress.NewHandler(c.Logger, c.Progress),
		SettingsHandler:  settings.NewHandler(c.Logger, c.Theme),
		RemindersHandler: reminders.NewHandler(c.Logger, c.Reminders),
		JobHandler:       jobs.NewHandler(c.Inspector, c.Config.ReminderQueue, c.Logger),
		Metrics:          c.Metrics,
	}
}

// Close releases the queue clients and the store.
func (c *Container) Close() error {
	var errs []error
	if c.Inspector != nil {
		errs = append(errs, c.Inspector.Close())
	}
	if c.JobsClient != nil {
		errs = append(errs, c.JobsClient.Close())
	}
	if c.Store != nil {
		errs = append(errs, c.Store.Close())
	}
	return errors.Join(errs...)
}

// newMailer sends through SMTP_HOST when set and logs mail otherwise.
func newMailer(cfg *Config, logger *slog.Logger) reminders.Mailer {
	if cfg.SMTPHost == "" {
		return jobs.LogMailer{Logger: logger}
	}
	return jobs.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom).
		WithPlainAuth(cfg.SMTPUsername, cfg.SMTPPassword)
}
