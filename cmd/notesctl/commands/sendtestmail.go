package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hdnotes/api/internal/config"
	"github.com/hdnotes/api/internal/mail"
)

// NewSendTestMailCmd creates the send-test-mail command
func NewSendTestMailCmd() *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "send-test-mail",
		Short: "Send a test verification email",
		Long:  "Send a sample verification-code email through the configured SMTP relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			if to == "" {
				return fmt.Errorf("--to is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.SMTPHost == "" {
				return fmt.Errorf("SMTP_HOST is not configured")
			}

			mailer, err := mail.NewSMTPMailer(mail.SMTPConfig{
				Host:     cfg.SMTPHost,
				Port:     cfg.SMTPPort,
				Username: cfg.SMTPUser,
				Password: cfg.SMTPPass,
				From:     cfg.MailFrom,
			})
			if err != nil {
				return fmt.Errorf("failed to configure mailer: %w", err)
			}

			body, err := mail.OTPEmailBody("Test User", "000000", 10)
			if err != nil {
				return fmt.Errorf("failed to render email body: %w", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := mailer.Send(ctx, to, mail.OTPEmailSubject, body); err != nil {
				return fmt.Errorf("failed to send test email: %w", err)
			}

			fmt.Printf("✓ Test email sent to %s\n", to)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Recipient email address")
	return cmd
}
