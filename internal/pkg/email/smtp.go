package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"time"

	"github.com/cmlabs-hris/hours-report/internal/config"
	"github.com/cmlabs-hris/hours-report/internal/domain/notification"
	"github.com/cmlabs-hris/hours-report/internal/pkg/redact"
)

const maxRetries = 3

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type SMTPMailer struct {
	cfg      config.SMTPConfig
	sender   Sender
	sendMail sendMailFunc
	backoff  time.Duration
	logger   *slog.Logger
}

func NewSMTPMailer(cfg config.SMTPConfig, logger *slog.Logger) *SMTPMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPMailer{
		cfg:      cfg,
		sender:   Sender{Address: cfg.From, Name: cfg.FromName},
		sendMail: smtp.SendMail,
		backoff:  time.Second,
		logger:   logger.With("stage", "deliver"),
	}
}

// Send tries up to three times with 1s, 2s backoff between attempts.
func (m *SMTPMailer) Send(ctx context.Context, msg notification.Email) error {
	data, err := BuildMessage(m.sender, msg, time.Now())
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err := m.sendMail(addr, auth, m.cfg.From, msg.To, data)
		if err == nil {
			m.logger.Info("Email sent successfully",
				"to", redact.Emails(msg.To),
				"subject", msg.Subject,
				"attempt", attempt,
			)
			return nil
		}

		lastErr = err
		m.logger.Error("Failed to send email",
			"to", redact.Emails(msg.To),
			"subject", msg.Subject,
			"attempt", attempt,
			"max_retries", maxRetries,
			"error", err,
		)

		if attempt < maxRetries {
			select {
			case <-time.After(m.backoff << (attempt - 1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, lastErr)
}
