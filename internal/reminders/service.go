package reminders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/betterfly/betterfly/internal/platform/clock"
	"github.com/betterfly/betterfly/internal/platform/kv"
	"github.com/betterfly/betterfly/internal/shared"
)

// Queue holds future reminder occurrences.
type Queue interface {
	Schedule(ctx context.Context, r Reminder, at time.Time) error
	Cancel(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
	EnqueueEmail(ctx context.Context, to, subject, body string) error
}

// Notifier delivers push notifications.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// Mailer delivers email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// ServiceParams groups the service dependencies.
type ServiceParams struct {
	Store    kv.Store
	Queue    Queue
	Notifier Notifier
	Mailer   Mailer
	Clock    clock.Clock
	Logger   *slog.Logger
	NewID    func() string
}

// Service schedules, cancels and delivers reminders.
type Service struct {
	store    kv.Store
	queue    Queue
	notifier Notifier
	mailer   Mailer
	clock    clock.Clock
	logger   *slog.Logger
	newID    func() string
	validate *validator.Validate
}

// NewService constructs a Service.
func NewService(params ServiceParams) *Service {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := params.Clock
	if clk == nil {
		clk = clock.NewSystem(nil)
	}
	newID := params.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Service{
		store:    params.Store,
		queue:    params.Queue,
		notifier: params.Notifier,
		mailer:   params.Mailer,
		clock:    clk,
		logger:   logger.With(slog.String("service", "reminders")),
		newID:    newID,
		validate: validator.New(),
	}
}

// ScheduleDaily replaces any existing daily reminder with one at hour:minute.
func (s *Service) ScheduleDaily(ctx context.Context, hour, minute int) bool {
	if err := validateTime(hour, minute); err != nil {
		s.logger.Warn("schedule daily reminder", slog.Any("error", err))
		return false
	}
	if err := s.CancelDaily(ctx); err != nil {
		s.logger.Warn("cancel previous daily reminder", slog.Any("error", err))
	}
	reminder := Reminder{ID: s.newID(), Kind: KindDaily, Hour: hour, Minute: minute}
	at := NextOccurrence(s.clock.Now(), hour, minute)
	if err := s.queue.Schedule(ctx, reminder, at); err != nil {
		s.logger.Error("schedule daily reminder", slog.Any("error", err))
		return false
	}
	if err := s.store.Set(ctx, KeyDailyID, reminder.ID); err != nil {
		s.logger.Error("store daily reminder id", slog.Any("error", err))
		return false
	}
	if err := s.putJSON(ctx, KeyDailyTime, DailyTime{Hour: hour, Minute: minute}); err != nil {
		s.logger.Error("store daily reminder time", slog.Any("error", err))
		return false
	}
	s.logger.Info("daily reminder scheduled", slog.String("id", reminder.ID), slog.Time("next", at))
	return true
}

// CancelDaily removes the queued daily reminder and its stored settings.
// Nothing happens when no daily reminder is stored.
func (s *Service) CancelDaily(ctx context.Context) error {
	id, ok, err := s.store.Get(ctx, KeyDailyID)
	if err != nil || !ok {
		return err
	}
	if err := s.queue.Cancel(ctx, id); err != nil {
		return err
	}
	return s.store.RemoveMany(ctx, KeyDailyID, KeyDailyTime)
}

// DailyTime returns the stored daily reminder time.
func (s *Service) DailyTime(ctx context.Context) (DailyTime, bool, error) {
	var t DailyTime
	ok, err := s.getJSON(ctx, KeyDailyTime, &t)
	return t, ok, err
}

// IsDailyActive reports whether the stored reminder id is still queued.
func (s *Service) IsDailyActive(ctx context.Context) bool {
	id, ok, err := s.store.Get(ctx, KeyDailyID)
	if err != nil {
		s.logger.Error("load daily reminder id", slog.Any("error", err))
		return false
	}
	if !ok || id == "" {
		return false
	}
	exists, err := s.queue.Exists(ctx, id)
	if err != nil {
		s.logger.Error("check daily reminder", slog.Any("error", err))
		return false
	}
	return exists
}

// ScheduleEmail replaces any existing email reminder with one to email at
// hour:minute.
func (s *Service) ScheduleEmail(ctx context.Context, hour, minute int, email string) bool {
	if err := validateTime(hour, minute); err != nil {
		s.logger.Warn("schedule email reminder", slog.Any("error", err))
		return false
	}
	if !s.ValidEmail(email) {
		s.logger.Warn("schedule email reminder", slog.String("email", email), slog.String("reason", "invalid email"))
		return false
	}
	if err := s.CancelEmail(ctx); err != nil {
		s.logger.Warn("cancel previous email reminder", slog.Any("error", err))
	}
	reminder := Reminder{ID: s.newID(), Kind: KindEmail, Hour: hour, Minute: minute, Email: email}
	at := NextOccurrence(s.clock.Now(), hour, minute)
	if err := s.queue.Schedule(ctx, reminder, at); err != nil {
		s.logger.Error("schedule email reminder", slog.Any("error", err))
		return false
	}
	if err := s.store.Set(ctx, KeyEmailID, reminder.ID); err != nil {
		s.logger.Error("store email reminder id", slog.Any("error", err))
		return false
	}
	if err := s.store.Set(ctx, KeyEmailEnabled, "true"); err != nil {
		s.logger.Error("store email reminder flag", slog.Any("error", err))
		return false
	}
	if err := s.putJSON(ctx, KeyEmailTime, EmailConfig{Hour: hour, Minute: minute, Email: email}); err != nil {
		s.logger.Error("store email reminder config", slog.Any("error", err))
		return false
	}
	s.logger.Info("email reminder scheduled", slog.String("id", reminder.ID), slog.String("email", email), slog.Time("next", at))
	return true
}

// CancelEmail removes the email reminder. Nothing happens when none is set.
func (s *Service) CancelEmail(ctx context.Context) error {
	_, configured, err := s.EmailConfig(ctx)
	if err != nil || !configured {
		return err
	}
	id, ok, err := s.store.Get(ctx, KeyEmailID)
	if err != nil {
		return err
	}
	if ok && id != "" {
		if err := s.queue.Cancel(ctx, id); err != nil {
			return err
		}
	}
	return s.store.RemoveMany(ctx, KeyEmailID, KeyEmailEnabled, KeyEmailTime)
}

// EmailConfig returns the stored email reminder configuration.
func (s *Service) EmailConfig(ctx context.Context) (EmailConfig, bool, error) {
	var cfg EmailConfig
	ok, err := s.getJSON(ctx, KeyEmailTime, &cfg)
	return cfg, ok, err
}

// IsEmailActive reports whether the email reminder flag is set.
func (s *Service) IsEmailActive(ctx context.Context) bool {
	enabled, _, err := s.store.Get(ctx, KeyEmailEnabled)
	if err != nil {
		s.logger.Error("load email reminder flag", slog.Any("error", err))
		return false
	}
	return enabled == "true"
}

// SendTestEmail queues a one-off test message to email.
func (s *Service) SendTestEmail(ctx context.Context, email string) bool {
	if !s.ValidEmail(email) {
		s.logger.Warn("send test email", slog.String("email", email), slog.String("reason", "invalid email"))
		return false
	}
	if err := s.queue.EnqueueEmail(ctx, email, TestSubject, TestBody); err != nil {
		s.logger.Error("send test email", slog.String("email", email), slog.Any("error", err))
		return false
	}
	return true
}

// ValidEmail reports whether email is a well formed address.
func (s *Service) ValidEmail(email string) bool {
	return s.validate.Var(email, "required,email") == nil
}

// Outcome reports what a delivery attempt did.
type Outcome struct {
	Sent        bool
	Rescheduled bool
}

// Deliver sends one due reminder and queues the next day's occurrence.
// Reminders that were cancelled or replaced since they were queued are
// dropped. The next occurrence is queued even when delivery fails so one
// failed send does not end the schedule.
func (s *Service) Deliver(ctx context.Context, r Reminder) (Outcome, error) {
	var out Outcome
	active, err := s.isCurrent(ctx, r)
	if err != nil {
		return out, err
	}
	if !active {
		s.logger.Info("dropping stale reminder", slog.String("id", r.ID), slog.String("kind", r.Kind))
		return out, nil
	}

	var sendErr error
	switch r.Kind {
	case KindDaily:
		sendErr = s.notify(ctx)
	case KindEmail:
		sendErr = s.mail(ctx, r.Email, EmailSubject, EmailBody)
	default:
		return out, shared.ValidationError("unknown reminder kind %q", r.Kind)
	}
	out.Sent = sendErr == nil

	at := NextOccurrence(s.clock.Now(), r.Hour, r.Minute)
	if err := s.queue.Schedule(ctx, r, at); err != nil {
		return out, errors.Join(sendErr, err)
	}
	out.Rescheduled = true
	return out, sendErr
}

// SendNow delivers the configured reminder of kind right away. The queued
// schedule is left untouched.
func (s *Service) SendNow(ctx context.Context, kind string) error {
	switch kind {
	case KindDaily:
		return s.notify(ctx)
	case KindEmail:
		cfg, ok, err := s.EmailConfig(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("email reminder: %w", shared.ErrNotFound)
		}
		return s.mail(ctx, cfg.Email, EmailSubject, EmailBody)
	default:
		return shared.ValidationError("unknown reminder kind %q", kind)
	}
}

func (s *Service) isCurrent(ctx context.Context, r Reminder) (bool, error) {
	key := KeyDailyID
	if r.Kind == KindEmail {
		key = KeyEmailID
		if !s.IsEmailActive(ctx) {
			return false, nil
		}
	}
	id, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return ok && id == r.ID, nil
}

func (s *Service) notify(ctx context.Context) error {
	if s.notifier == nil {
		return errors.New("reminders: notifier not configured")
	}
	return s.notifier.Notify(ctx, DailyTitle, DailyBody)
}

func (s *Service) mail(ctx context.Context, to, subject, body string) error {
	if s.mailer == nil {
		return errors.New("reminders: mailer not configured")
	}
	return s.mailer.Send(ctx, to, subject, body)
}

func (s *Service) putJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return shared.StorageError("encode "+key, err)
	}
	return s.store.Set(ctx, key, string(raw))
}

func (s *Service) getJSON(ctx context.Context, key string, v any) (bool, error) {
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil || !ok || raw == "" {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, shared.StorageError("decode "+key, err)
	}
	return true, nil
}
