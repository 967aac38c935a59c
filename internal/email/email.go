// Package email dispatches the out-of-band verification and password-reset
// messages. Delivery itself is best-effort: session flows never fail because
// a mail could not be sent.
package email

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/ikiraha/backend/internal/config"
)

type Mailer interface {
	SendVerificationEmail(to, token string) error
	SendPasswordResetEmail(to, token string) error
}

// NewMailer returns an SMTP-backed mailer when SMTP_HOST is configured and a
// log-only fallback otherwise.
func NewMailer(cfg config.SMTPConfig) Mailer {
	if cfg.Host == "" {
		return &LogMailer{}
	}
	return &SMTPMailer{cfg: cfg}
}

// LogMailer writes the tokens to the process log instead of sending mail.
// Useful in development, where the reset link is read off the server output.
type LogMailer struct{}

func (m *LogMailer) SendVerificationEmail(to, token string) error {
	log.Printf("Email verification token (to=%s): %s", to, token)
	return nil
}

func (m *LogMailer) SendPasswordResetEmail(to, token string) error {
	log.Printf("Password reset token (to=%s): %s", to, token)
	return nil
}

type SMTPMailer struct {
	cfg config.SMTPConfig
}

func (m *SMTPMailer) SendVerificationEmail(to, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", m.cfg.FrontendURL, token)
	body := fmt.Sprintf("Welcome to Ikiraha!\r\n\r\nVerify your email address:\r\n%s\r\n", link)
	return m.send(to, "Verify your email address", body)
}

func (m *SMTPMailer) SendPasswordResetEmail(to, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", m.cfg.FrontendURL, token)
	body := fmt.Sprintf("A password reset was requested for your account.\r\n\r\nReset it here (valid for 1 hour):\r\n%s\r\n\r\nIf this wasn't you, ignore this message.\r\n", link)
	return m.send(to, "Reset your password", body)
}

func (m *SMTPMailer) send(to, subject, body string) error {
	from := m.cfg.FromAddress
	if from == "" {
		from = m.cfg.User
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s", from, to, subject, body)

	addr := m.cfg.Host + ":" + m.cfg.Port
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	if err := smtp.SendMail(addr, auth, from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
