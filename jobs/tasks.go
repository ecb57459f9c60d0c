package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/betterfly/betterfly/internal/reminders"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for one-off emails.
	TaskTypeSendEmail = "mail:send"
	// TaskReminderDaily delivers the daily push reminder.
	TaskReminderDaily = "reminder:daily"
	// TaskReminderEmail delivers the email reminder.
	TaskReminderEmail = "reminder:email"
	// TaskStreakSweep resets stale streaks for every user.
	TaskStreakSweep = "progress:streak-sweep"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// ReminderTaskType maps a reminder kind to its task type.
func ReminderTaskType(kind string) (string, error) {
	switch kind {
	case reminders.KindDaily:
		return TaskReminderDaily, nil
	case reminders.KindEmail:
		return TaskReminderEmail, nil
	default:
		return "", fmt.Errorf("jobs: unknown reminder kind %q", kind)
	}
}

// NewReminderTask constructs the task for one reminder occurrence.
func NewReminderTask(r reminders.Reminder) (*asynq.Task, error) {
	typ, err := ReminderTaskType(r.Kind)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(typ, data), nil
}

// NewStreakSweepTask constructs the nightly streak sweep task.
func NewStreakSweepTask() *asynq.Task {
	return asynq.NewTask(TaskStreakSweep, nil)
}

// reminderFromInfo decodes the reminder carried by a queued task. ok is false
// for tasks of other types.
func reminderFromInfo(info *asynq.TaskInfo) (reminders.Reminder, bool) {
	if info == nil || (info.Type != TaskReminderDaily && info.Type != TaskReminderEmail) {
		return reminders.Reminder{}, false
	}
	var r reminders.Reminder
	if err := json.Unmarshal(info.Payload, &r); err != nil {
		return reminders.Reminder{}, false
	}
	return r, true
}
