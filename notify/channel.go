package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/spendkit/spend_service/configs"
)

// Channel delivers a message to an external recipient address. Delivery is
// best-effort; callers must not roll back committed state when Send fails.
type Channel interface {
	Send(ctx context.Context, recipient string, subject string, body string) error
}

// SMTPChannel sends plain-text mail through the configured relay,
// retrying transient failures with exponential backoff.
type SMTPChannel struct {
	cfg *configs.SMTPConfig
}

func NewSMTPChannel(cfg *configs.SMTPConfig) *SMTPChannel {
	return &SMTPChannel{cfg: cfg}
}

func (s *SMTPChannel) Send(ctx context.Context, recipient string, subject string, body string) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)

	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		s.cfg.From, recipient, subject, body,
	)

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, smtp.SendMail(addr, auth, s.cfg.From, []string{recipient}, []byte(msg))
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(3),
		backoff.WithMaxElapsedTime(30*time.Second),
	)

	return err
}

// LogChannel is the local/dev channel. It only logs.
type LogChannel struct{}

func (LogChannel) Send(ctx context.Context, recipient string, subject string, body string) error {
	slog.Info("notification send",
		slog.String("recipient", recipient),
		slog.String("subject", subject),
	)
	return nil
}
