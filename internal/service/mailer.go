package service

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/campushq/campusgate/internal/config"
	"github.com/rs/zerolog"
)

// Mailer delivers OTP codes out-of-band. Abstracted so tests and dev
// environments never need a mail server.
type Mailer interface {
	SendOTP(ctx context.Context, to, code string) error
}

// NewMailer picks the SMTP mailer when SMTP_HOST is configured,
// otherwise the log-only dev mailer.
func NewMailer(cfg *config.Config, log zerolog.Logger) Mailer {
	if cfg.SMTPHost == "" {
		return &LogMailer{log: log.With().Str("component", "log_mailer").Logger()}
	}
	return &SMTPMailer{cfg: cfg}
}

// SMTPMailer sends OTP emails through a plain-auth SMTP relay.
type SMTPMailer struct {
	cfg *config.Config
}

func (m *SMTPMailer) SendOTP(ctx context.Context, to, code string) error {
	addr := m.cfg.SMTPHost + ":" + m.cfg.SMTPPort
	auth := smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPass, m.cfg.SMTPHost)

	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Your CampusGate verification code\r\n\r\n"+
			"Your one-time verification code is %s. It expires in %d minutes.\r\n",
		m.cfg.SMTPSender, to, code, int(m.cfg.OTPExpiry.Minutes()))

	if err := smtp.SendMail(addr, auth, m.cfg.SMTPSender, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogMailer writes OTP codes to the application log instead of sending
// mail. Development only.
type LogMailer struct {
	log zerolog.Logger
}

func (m *LogMailer) SendOTP(ctx context.Context, to, code string) error {
	m.log.Info().Str("to", to).Str("code", code).Msg("OTP (dev mailer)")
	return nil
}
