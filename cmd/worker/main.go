package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/betterfly/betterfly/internal/app"
	"github.com/betterfly/betterfly/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	container, err := app.OpenContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("open container", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := container.Close(); err != nil {
			logger.Warn("close container", slog.Any("error", err))
		}
	}()

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Queue:     cfg.ReminderQueue,
		Location:  cfg.Location,
		Logger:    logger,
		Handlers:  handlers(container),
		Cron: []jobs.CronRegistration{
			{Spec: "5 0 * * *", Task: jobs.NewStreakSweepTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: container.Metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("worker metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("starting worker", slog.String("queue", cfg.ReminderQueue), slog.String("timezone", cfg.ReminderTimezone))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

func handlers(c *app.Container) []jobs.TaskHandler {
	reminderJob := jobs.NewReminderJob(c.Reminders, c.Logger, c.JobMetrics)
	mailJob := &jobs.MailJob{Mailer: c.Mailer, Logger: c.Logger, Metrics: c.JobMetrics}
	sweepJob := &jobs.StreakSweepJob{Progress: c.Progress, Logger: c.Logger, Metrics: c.JobMetrics}
	return []jobs.TaskHandler{
		{Type: jobs.TaskReminderDaily, Handler: reminderJob.Handle},
		{Type: jobs.TaskReminderEmail, Handler: reminderJob.Handle},
		{Type: jobs.TaskTypeSendEmail, Handler: mailJob.Handle},
		{Type: jobs.TaskStreakSweep, Handler: sweepJob.Handle},
	}
}
