package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/betterfly/betterfly/internal/jobs"
	"github.com/betterfly/betterfly/internal/reminders"
)

// SMTPMailer sends plain-text mail through an SMTP relay.
type SMTPMailer struct {
	Addr string
	From string
	Auth smtp.Auth
}

// NewSMTPMailer builds a mailer for host:port.
func NewSMTPMailer(host string, port int, from string) *SMTPMailer {
	return &SMTPMailer{Addr: net.JoinHostPort(host, strconv.Itoa(port)), From: from}
}

// WithPlainAuth authenticates against the relay with PLAIN credentials.
// An empty username leaves the mailer unauthenticated.
func (m *SMTPMailer) WithPlainAuth(username, password string) *SMTPMailer {
	if username == "" {
		return m
	}
	host, _, err := net.SplitHostPort(m.Addr)
	if err != nil {
		host = m.Addr
	}
	m.Auth = smtp.PlainAuth("", username, password, host)
	return m
}

// Send implements reminders.Mailer.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := buildMessage(m.From, to, subject, body)
	if err != nil {
		return err
	}
	if err := smtp.SendMail(m.Addr, m.Auth, m.From, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp: send to %s: %w", to, err)
	}
	return nil
}

// buildMessage renders a plain-text message. Non-ASCII subjects are written
// as RFC 2047 encoded words.
func buildMessage(from, to, subject, body string) ([]byte, error) {
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return nil, errors.New("smtp: header contains a line break")
	}
	return []byte(strings.Join([]string{
		"From: " + from,
		"To: " + to,
		"Subject: " + mime.QEncoding.Encode("utf-8", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		body,
	}, "\r\n")), nil
}

// LogMailer writes mail to the log when no SMTP relay is configured.
type LogMailer struct {
	Logger *slog.Logger
}

// Send implements reminders.Mailer.
func (m LogMailer) Send(ctx context.Context, to, subject, _ string) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "mail not sent, no smtp relay", slog.String("to", to), slog.String("subject", subject))
	return nil
}

// MailJob handles mail:send tasks.
type MailJob struct {
	Mailer  reminders.Mailer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle sends one queued email.
func (j *MailJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Mailer == nil {
		return errors.New("mail job: handler not configured")
	}
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.To == "" {
		return fmt.Errorf("mail job: bad payload: %w", asynq.SkipRetry)
	}
	metrics := j.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	tracker := metrics.Track(TaskTypeSendEmail)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	if err := j.Mailer.Send(ctx, payload.To, payload.Subject, payload.Body); err != nil {
		return err
	}
	if j.Logger != nil {
		j.Logger.Info("mail sent", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	}
	return nil
}
