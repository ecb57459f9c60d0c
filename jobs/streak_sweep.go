package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/betterfly/betterfly/internal/jobs"
)

// StreakSweeper resets stale streaks.
type StreakSweeper interface {
	SweepStreaks(ctx context.Context) (int, error)
}

// StreakSweepJob runs the nightly streak reset.
type StreakSweepJob struct {
	Progress StreakSweeper
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// Handle processes progress:streak-sweep tasks.
func (j *StreakSweepJob) Handle(ctx context.Context, _ *asynq.Task) (resultErr error) {
	if j == nil || j.Progress == nil {
		return errors.New("streak sweep: handler not configured")
	}
	metrics := j.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	tracker := metrics.Track(TaskStreakSweep)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	reset, err := j.Progress.SweepStreaks(ctx)
	if err != nil {
		return err
	}
	if j.Logger != nil {
		j.Logger.Info("streak sweep", slog.Int("reset", reset))
	}
	return nil
}
