package reminders

import (
	"context"
	"log/slog"
)

// LogNotifier writes push notifications to the log. The device app polls
// for them; the server has no push channel of its own.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(ctx context.Context, title, body string) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "push reminder", slog.String("title", title), slog.String("body", body))
	return nil
}
