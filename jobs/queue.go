package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"

	"github.com/betterfly/betterfly/internal/reminders"
)

const inspectPageSize = 100

// Queue stores reminder occurrences as asynq tasks. It implements
// reminders.Queue.
type Queue struct {
	client    *Client
	inspector *asynq.Inspector
	queue     string
	sources   []taskSource
}

// NewQueue wires a Queue on top of an asynq client and inspector.
func NewQueue(client *Client, inspector *asynq.Inspector) *Queue {
	return &Queue{
		client:    client,
		inspector: inspector,
		queue:     client.queue,
		sources: []taskSource{
			{state: asynq.TaskStateScheduled, list: inspector.ListScheduledTasks},
			{state: asynq.TaskStatePending, list: inspector.ListPendingTasks},
			{state: asynq.TaskStateActive, list: inspector.ListActiveTasks},
		},
	}
}

// Schedule implements reminders.Queue.
func (q *Queue) Schedule(ctx context.Context, r reminders.Reminder, at time.Time) error {
	_, err := q.client.EnqueueReminderAt(ctx, r, at)
	return err
}

// Cancel implements reminders.Queue. Every waiting task that carries id is
// deleted; a task already running cannot be cancelled and is dropped by the
// worker instead.
func (q *Queue) Cancel(_ context.Context, id string) error {
	tasks, err := q.find(id)
	if err != nil {
		return err
	}
	for _, task := range tasks {
		if task.state == asynq.TaskStateActive {
			continue
		}
		if err := q.inspector.DeleteTask(q.queue, task.id); err != nil && !errors.Is(err, asynq.ErrTaskNotFound) {
			return err
		}
	}
	return nil
}

// Exists implements reminders.Queue. A reminder whose occurrence is running
// on a worker still counts as queued.
func (q *Queue) Exists(_ context.Context, id string) (bool, error) {
	tasks, err := q.find(id)
	if err != nil {
		return false, err
	}
	return len(tasks) > 0, nil
}

// EnqueueEmail implements reminders.Queue.
func (q *Queue) EnqueueEmail(ctx context.Context, to, subject, body string) error {
	_, err := q.client.EnqueueSendEmail(ctx, SendEmailPayload{To: to, Subject: subject, Body: body})
	return err
}

type listFunc func(queue string, opts ...asynq.ListOption) ([]*asynq.TaskInfo, error)

type taskSource struct {
	state asynq.TaskState
	list  listFunc
}

type queuedTask struct {
	id    string
	state asynq.TaskState
}

func (q *Queue) find(id string) ([]queuedTask, error) {
	var found []queuedTask
	for _, src := range q.sources {
		for page := 1; ; page++ {
			tasks, err := src.list(q.queue, asynq.PageSize(inspectPageSize), asynq.Page(page))
			if errors.Is(err, asynq.ErrQueueNotFound) {
				break
			}
			if err != nil {
				return nil, err
			}
			for _, taskID := range matchReminder(tasks, id) {
				found = append(found, queuedTask{id: taskID, state: src.state})
			}
			if len(tasks) < inspectPageSize {
				break
			}
		}
	}
	return found, nil
}

func matchReminder(tasks []*asynq.TaskInfo, id string) []string {
	var out []string
	for _, info := range tasks {
		if r, ok := reminderFromInfo(info); ok && r.ID == id {
			out = append(out, info.ID)
		}
	}
	return out
}
