package mailer

import (
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

var ErrRecipientRequired = errors.New("recipient address is required")

// Mailer dispatches a single message. Implementations must be safe for
// concurrent use.
type Mailer interface {
	Send(to, subject, body string) error
}

// LogMailer writes messages to the log instead of delivering them. Used
// when SMTP is not configured, so dev setups can read verification codes
// straight from the server log.
type LogMailer struct {
	Logger *slog.Logger
}

// Send logs the message.
func (m *LogMailer) Send(to, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		return ErrRecipientRequired
	}
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("mail dispatch (log only)", "to", to, "subject", subject, "body", body)
	return nil
}

// SMTPMailer delivers mail over SMTP with PLAIN auth. Delivery is retried
// a few times with backoff; this is the only layer in the system that
// retries — store and search calls never do.
type SMTPMailer struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string

	// Attempts overrides the retry count when > 0.
	Attempts uint
}

const defaultAttempts = 3

// Send delivers one message, retrying transient failures.
func (m *SMTPMailer) Send(to, subject, body string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return ErrRecipientRequired
	}

	msg := buildMessage(m.From, to, subject, body)
	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)

	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}

	attempts := m.Attempts
	if attempts == 0 {
		attempts = defaultAttempts
	}

	err := retry.Do(
		func() error {
			return smtp.SendMail(addr, auth, m.From, []string{to}, msg)
		},
		retry.Attempts(attempts),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
