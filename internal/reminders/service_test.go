package reminders_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betterfly/betterfly/internal/platform/clock"
	"github.com/betterfly/betterfly/internal/platform/kv"
	"github.com/betterfly/betterfly/internal/reminders"
	"github.com/betterfly/betterfly/internal/shared"
)

type fixture struct {
	store  *kv.MemoryStore
	queue  *fakeQueue
	sender *recordingSender
	clock  *clock.Fixed
	svc    *reminders.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		store:  kv.NewMemoryStore(),
		queue:  newFakeQueue(),
		sender: &recordingSender{},
		clock:  clock.NewFixed(time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)),
	}
	f.svc = reminders.NewService(reminders.ServiceParams{
		Store:    f.store,
		Queue:    f.queue,
		Notifier: f.sender,
		Mailer:   f.sender,
		Clock:    f.clock,
		NewID:    sequentialIDs(),
	})
	return f
}

func TestNextOccurrence(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC), reminders.NextOccurrence(now, 20, 0))
	assert.Equal(t, time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC), reminders.NextOccurrence(now, 8, 0))
	assert.Equal(t, time.Date(2024, 3, 11, 9, 30, 0, 0, time.UTC), reminders.NextOccurrence(now, 9, 30), "exactly now rolls over")
}

func TestScheduleDailyStoresAndQueues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.True(t, f.svc.ScheduleDaily(ctx, 20, 15))

	id, ok, err := f.store.Get(ctx, reminders.KeyDailyID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "r-1", id)

	daily, ok, err := f.svc.DailyTime(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, reminders.DailyTime{Hour: 20, Minute: 15}, daily)
	assert.True(t, f.svc.IsDailyActive(ctx))

	item := f.queue.scheduled["r-1"]
	assert.Equal(t, time.Date(2024, 3, 10, 20, 15, 0, 0, time.UTC), item.at)
	assert.Equal(t, reminders.KindDaily, item.reminder.Kind)
}

func TestScheduleDailyReplacesPrevious(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.True(t, f.svc.ScheduleDaily(ctx, 7, 0))
	require.True(t, f.svc.ScheduleDaily(ctx, 21, 0))

	assert.Len(t, f.queue.scheduled, 1)
	_, stillQueued := f.queue.scheduled["r-1"]
	assert.False(t, stillQueued)
}

func TestScheduleDailyRejectsBadTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.False(t, f.svc.ScheduleDaily(ctx, 24, 0))
	assert.False(t, f.svc.ScheduleDaily(ctx, 10, 60))
	assert.Empty(t, f.queue.scheduled)
}

func TestScheduleDailyQueueFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.queue.failNext = errSMTP

	assert.False(t, f.svc.ScheduleDaily(ctx, 8, 0))
	_, ok, err := f.store.Get(ctx, reminders.KeyDailyID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, f.svc.IsDailyActive(ctx))
}

func TestCancelDaily(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.CancelDaily(ctx), "cancel without reminder is a no-op")

	require.True(t, f.svc.ScheduleDaily(ctx, 8, 0))
	require.NoError(t, f.svc.CancelDaily(ctx))

	assert.Empty(t, f.queue.scheduled)
	assert.False(t, f.svc.IsDailyActive(ctx))
	_, ok, err := f.svc.DailyTime(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsDailyActiveFollowsQueue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.True(t, f.svc.ScheduleDaily(ctx, 8, 0))
	f.queue.take("r-1")
	assert.False(t, f.svc.IsDailyActive(ctx))
}

func TestScheduleEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.False(t, f.svc.ScheduleEmail(ctx, 8, 0, "not-an-email"))
	assert.False(t, f.svc.IsEmailActive(ctx))

	require.True(t, f.svc.ScheduleEmail(ctx, 8, 0, "ana@example.com"))
	assert.True(t, f.svc.IsEmailActive(ctx))

	enabled, _, err := f.store.Get(ctx, reminders.KeyEmailEnabled)
	require.NoError(t, err)
	assert.Equal(t, "true", enabled)

	cfg, ok, err := f.svc.EmailConfig(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, reminders.EmailConfig{Hour: 8, Minute: 0, Email: "ana@example.com"}, cfg)
	assert.Equal(t, time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC), f.queue.scheduled["r-1"].at)

	require.NoError(t, f.svc.CancelEmail(ctx))
	assert.False(t, f.svc.IsEmailActive(ctx))
	assert.Empty(t, f.queue.scheduled)
	_, ok, err = f.svc.EmailConfig(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSendTestEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.False(t, f.svc.SendTestEmail(ctx, "bad@"))
	assert.True(t, f.svc.SendTestEmail(ctx, "ana@example.com"))
	assert.Equal(t, []string{"ana@example.com"}, f.queue.emails)

	f.queue.failNext = errSMTP
	assert.False(t, f.svc.SendTestEmail(ctx, "ana@example.com"))
}

func TestDeliverDailyReschedulesNextDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.True(t, f.svc.ScheduleDaily(ctx, 20, 0))
	due := f.queue.take("r-1")
	f.clock.Set(due.at)

	out, err := f.svc.Deliver(ctx, due.reminder)
	require.NoError(t, err)
	assert.Equal(t, reminders.Outcome{Sent: true, Rescheduled: true}, out)
	assert.Equal(t, []string{reminders.DailyTitle}, f.sender.pushes)
	assert.Equal(t, time.Date(2024, 3, 11, 20, 0, 0, 0, time.UTC), f.queue.scheduled["r-1"].at)
	assert.True(t, f.svc.IsDailyActive(ctx))
}

func TestDeliverDropsCancelledReminder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.True(t, f.svc.ScheduleDaily(ctx, 20, 0))
	due := f.queue.take("r-1")
	require.NoError(t, f.svc.CancelDaily(ctx))

	out, err := f.svc.Deliver(ctx, due.reminder)
	require.NoError(t, err)
	assert.Equal(t, reminders.Outcome{}, out)
	assert.Empty(t, f.sender.pushes)
	assert.Empty(t, f.queue.scheduled)
}

func TestDeliverEmailKeepsScheduleOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.True(t, f.svc.ScheduleEmail(ctx, 8, 0, "ana@example.com"))
	due := f.queue.take("r-1")
	f.clock.Set(due.at)
	f.sender.err = errSMTP

	out, err := f.svc.Deliver(ctx, due.reminder)
	assert.ErrorIs(t, err, errSMTP)
	assert.Equal(t, reminders.Outcome{Sent: false, Rescheduled: true}, out)
	require.Len(t, f.sender.mails, 1)
	assert.Equal(t, sentMail{to: "ana@example.com", subject: reminders.EmailSubject}, f.sender.mails[0])
	assert.Equal(t, time.Date(2024, 3, 12, 8, 0, 0, 0, time.UTC), f.queue.scheduled["r-1"].at)
}

func TestSendNow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendNow(ctx, reminders.KindDaily))
	assert.Len(t, f.sender.pushes, 1)

	err := f.svc.SendNow(ctx, reminders.KindEmail)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	require.True(t, f.svc.ScheduleEmail(ctx, 8, 0, "ana@example.com"))
	require.NoError(t, f.svc.SendNow(ctx, reminders.KindEmail))
	require.Len(t, f.sender.mails, 1)
	assert.Len(t, f.queue.scheduled, 1, "schedule untouched")

	assert.ErrorIs(t, f.svc.SendNow(ctx, "sms"), shared.ErrValidation)
}
