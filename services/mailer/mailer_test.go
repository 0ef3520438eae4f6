package mailer

import (
	"errors"
	"strings"
	"testing"
)

func TestLogMailerRequiresRecipient(t *testing.T) {
	m := &LogMailer{}
	if err := m.Send("", "subject", "body"); !errors.Is(err, ErrRecipientRequired) {
		t.Fatalf("expected ErrRecipientRequired, got %v", err)
	}
	if err := m.Send("someone@example.com", "subject", "body"); err != nil {
		t.Fatalf("log mailer send failed: %v", err)
	}
}

func TestSMTPMailerRequiresRecipient(t *testing.T) {
	m := &SMTPMailer{Host: "localhost", Port: 25, From: "noreply@example.com"}
	if err := m.Send("   ", "subject", "body"); !errors.Is(err, ErrRecipientRequired) {
		t.Fatalf("expected ErrRecipientRequired, got %v", err)
	}
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("noreply@example.com", "alice@example.com", "Verify your email", "code: ABC123"))

	for _, want := range []string{
		"From: noreply@example.com\r\n",
		"To: alice@example.com\r\n",
		"Subject: Verify your email\r\n",
		"\r\n\r\ncode: ABC123",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
}
