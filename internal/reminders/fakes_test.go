package reminders_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/betterfly/betterfly/internal/reminders"
)

type queued struct {
	reminder reminders.Reminder
	at       time.Time
}

type fakeQueue struct {
	mu        sync.Mutex
	scheduled map[string]queued
	emails    []string
	failNext  error
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{scheduled: map[string]queued{}}
}

func (q *fakeQueue) Schedule(_ context.Context, r reminders.Reminder, at time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.failNext; err != nil {
		q.failNext = nil
		return err
	}
	q.scheduled[r.ID] = queued{reminder: r, at: at}
	return nil
}

func (q *fakeQueue) Cancel(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.scheduled, id)
	return nil
}

func (q *fakeQueue) Exists(_ context.Context, id string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.scheduled[id]
	return ok, nil
}

func (q *fakeQueue) EnqueueEmail(_ context.Context, to, _, _ string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.failNext; err != nil {
		q.failNext = nil
		return err
	}
	q.emails = append(q.emails, to)
	return nil
}

func (q *fakeQueue) take(id string) queued {
	q.mu.Lock()
	defer q.mu.Unlock()
	item := q.scheduled[id]
	delete(q.scheduled, id)
	return item
}

type sentMail struct {
	to, subject string
}

type recordingSender struct {
	pushes []string
	mails  []sentMail
	err    error
}

func (s *recordingSender) Notify(_ context.Context, title, _ string) error {
	s.pushes = append(s.pushes, title)
	return s.err
}

func (s *recordingSender) Send(_ context.Context, to, subject, _ string) error {
	s.mails = append(s.mails, sentMail{to: to, subject: subject})
	return s.err
}

var errSMTP = errors.New("smtp down")

func sequentialIDs() func() string {
	ids := []string{"r-1", "r-2", "r-3", "r-4", "r-5"}
	i := 0
	return func() string {
		id := ids[i%len(ids)]
		i++
		return id
	}
}
