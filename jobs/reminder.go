package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/betterfly/betterfly/internal/jobs"
	"github.com/betterfly/betterfly/internal/reminders"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Deliverer sends a due reminder and queues its next occurrence.
type Deliverer interface {
	Deliver(ctx context.Context, r reminders.Reminder) (reminders.Outcome, error)
}

// ReminderJob handles reminder:daily and reminder:email tasks.
type ReminderJob struct {
	Reminders Deliverer
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewReminderJob wires dependencies for the reminder handler.
func NewReminderJob(deliverer Deliverer, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReminderJob {
	return &ReminderJob{Reminders: deliverer, Logger: logger, Metrics: metrics}
}

// Handle processes one reminder occurrence.
func (j *ReminderJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Reminders == nil {
		return errors.New("reminder job: handler not configured")
	}
	var r reminders.Reminder
	if err := json.Unmarshal(t.Payload(), &r); err != nil || r.ID == "" {
		return fmt.Errorf("reminder job: bad payload: %w", asynq.SkipRetry)
	}

	tracker := j.metrics().Track(t.Type())
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("reminder_id", r.ID), slog.String("kind", r.Kind))
	out, err := j.Reminders.Deliver(ctx, r)
	if out.Sent {
		j.metrics().Delivered(channel(r.Kind), out.Rescheduled)
	}
	if err != nil {
		logger.Error("reminder delivery failed", slog.Bool("rescheduled", out.Rescheduled), slog.Any("error", err))
		return fmt.Errorf("reminder %s: %w", r.ID, err)
	}
	logger.Info("reminder processed", slog.Bool("sent", out.Sent), slog.Bool("rescheduled", out.Rescheduled))
	return nil
}

func channel(kind string) string {
	if kind == reminders.KindEmail {
		return "email"
	}
	return "push"
}

func (j *ReminderJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *ReminderJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
