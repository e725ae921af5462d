package notification

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
)

// Mailer delivers messages to an address. Delivery is fire-and-forget from
// the caller's perspective; a returned error means the message was not
// accepted for delivery.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	addr     string
	from     string
	username string
	password string
}

// NewSMTPMailer builds a mailer for the given relay address (host:port).
func NewSMTPMailer(addr, from, username, password string) *SMTPMailer {
	return &SMTPMailer{addr: addr, from: from, username: username, password: password}
}

// Send submits the message to the relay.
func (m *SMTPMailer) Send(_ context.Context, to, subject, body string) error {
	host, _, err := net.SplitHostPort(m.addr)
	if err != nil {
		return fmt.Errorf("invalid smtp address: %w", err)
	}

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, host)
	}

	msg := []byte(fmt.Sprintf("From: %s\r\n", m.from) +
		fmt.Sprintf("To: %s\r\n", to) +
		fmt.Sprintf("Subject: %s\r\n", subject) +
		"\r\n" +
		body + "\r\n")

	if err := smtp.SendMail(m.addr, auth, m.from, []string{to}, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// LogMailer writes messages to the structured logger instead of delivering
// them. Used in development when no SMTP relay is configured.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer constructs a logging mailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send writes the message to the structured logger.
func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	if m == nil || m.logger == nil {
		return nil
	}
	m.logger.Info("mail", "to", to, "subject", subject, "body", body)
	return nil
}
