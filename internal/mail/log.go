package mail

import (
	"context"

	"go.uber.org/zap"
)

// LogMailer logs outgoing mail instead of delivering it. Used when no SMTP
// relay is configured, so local development works without a mail account.
type LogMailer struct {
	log *zap.Logger
}

// NewLogMailer creates a mailer that only logs
func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log}
}

// Send records the message in the application log
func (m *LogMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	m.log.Info("mail_logged_not_sent",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(htmlBody)),
	)
	return nil
}
