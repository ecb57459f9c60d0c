// Package reminders schedules the daily push reminder and the email reminder.
// Scheduling is best effort: failures are logged and reported as false.
package reminders

import (
	"time"

	"github.com/betterfly/betterfly/internal/shared"
)

// Storage keys.
const (
	KeyDailyID      = "@meditation_daily_reminder"
	KeyDailyTime    = "@meditation_daily_reminder_time"
	KeyEmailID      = "@meditation_email_reminder"
	KeyEmailEnabled = "@meditation_email_reminder_enabled"
	KeyEmailTime    = "@meditation_email_reminder_time"
)

// Reminder kinds.
const (
	KindDaily = "daily"
	KindEmail = "email"
)

// Reminder is one queued occurrence. ID stays the same across the daily
// re-queues of one schedule.
type Reminder struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Hour   int    `json:"hour"`
	Minute int    `json:"minute"`
	Email  string `json:"email,omitempty"`
}

// DailyTime is the persisted daily reminder time.
type DailyTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// EmailConfig is the persisted email reminder configuration.
type EmailConfig struct {
	Hour   int    `json:"hour"`
	Minute int    `json:"minute"`
	Email  string `json:"email"`
}

// Message texts.
const (
	DailyTitle   = "🧘 Momento de Meditar"
	DailyBody    = "Es hora de tu sesión diaria de meditación. ¡Toma unos minutos para ti!"
	EmailSubject = "Tu recordatorio de meditación"
	EmailBody    = "Hola,\n\nEs hora de tu sesión diaria de meditación. ¡Toma unos minutos para ti!\n\nBetterfly"
	TestSubject  = "Correo de prueba"
	TestBody     = "Los recordatorios por email están funcionando correctamente."
)

// NextOccurrence returns today at hour:minute in now's location, or the same
// time tomorrow when that moment is not after now.
func NextOccurrence(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func validateTime(hour, minute int) error {
	if hour < 0 || hour > 23 {
		return shared.ValidationError("hour must be between 0 and 23")
	}
	if minute < 0 || minute > 59 {
		return shared.ValidationError("minute must be between 0 and 59")
	}
	return nil
}
