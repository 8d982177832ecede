package smtp

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/pantheonlabs/hermes/internal/relay"
)

type recordingMailer struct {
	mu    sync.Mutex
	err   error
	calls []struct {
		recipients []string
		subject    string
		body       string
		sender     string
	}
}

func (f *recordingMailer) Send(_ context.Context, recipients []string, subject, body, sender string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, struct {
		recipients []string
		subject    string
		body       string
		sender     string
	}{recipients, subject, body, sender})
	return "msg-1", f.err
}

type noAgent struct{}

func (noAgent) Converse(_ context.Context, _, _, _ string) (string, error) {
	return "", errors.New("not wired in this test")
}

type noResolver struct{}

func (noResolver) Resolve(body string) (string, string, bool) { return "", body, false }

func newTestSession(mailer *recordingMailer) *session {
	router := relay.NewRouter(mailer, noAgent{}, noResolver{}, "relay@example.com", "Zeus", 2000)
	return &session{router: router}
}

const sampleMessage = "From: alice@example.com\r\n" +
	"To: bob@example.com\r\n" +
	"Subject: Greetings\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Hello from SMTP.\r\n"

func TestSession_FanOutPerRecipient(t *testing.T) {
	mailer := &recordingMailer{}
	s := newTestSession(mailer)

	s.Mail("alice@example.com", nil)
	s.Rcpt("bob@example.com", nil)
	s.Rcpt("carol@example.com", nil)

	if err := s.Data(strings.NewReader(sampleMessage)); err != nil {
		t.Fatal(err)
	}

	if len(mailer.calls) != 2 {
		t.Fatalf("got %d sends, want one per recipient", len(mailer.calls))
	}
	if mailer.calls[0].recipients[0] != "bob@example.com" ||
		mailer.calls[1].recipients[0] != "carol@example.com" {
		t.Errorf("recipients = %v, %v", mailer.calls[0].recipients, mailer.calls[1].recipients)
	}
	for _, call := range mailer.calls {
		if call.subject != "Greetings" {
			t.Errorf("subject = %q", call.subject)
		}
		if !strings.Contains(call.body, "Hello from SMTP.") {
			t.Errorf("body = %q", call.body)
		}
		if call.sender != "alice@example.com" {
			t.Errorf("sender = %q, MAIL FROM must override", call.sender)
		}
	}
}

func TestSession_DeliveryFailureReturnsSMTPError(t *testing.T) {
	mailer := &recordingMailer{err: errors.New("ses down")}
	s := newTestSession(mailer)

	s.Mail("alice@example.com", nil)
	s.Rcpt("bob@example.com", nil)

	err := s.Data(strings.NewReader(sampleMessage))
	if err == nil {
		t.Fatal("want SMTP error on failed relay")
	}
	if !strings.Contains(err.Error(), "500") && !strings.Contains(err.Error(), "delivery failed") {
		t.Errorf("error = %v, want permanent failure", err)
	}
}

func TestSession_EmptyBodyStillDeliverable(t *testing.T) {
	mailer := &recordingMailer{}
	s := newTestSession(mailer)

	msg := "From: alice@example.com\r\n" +
		"Subject: Subject only\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n"

	s.Mail("alice@example.com", nil)
	s.Rcpt("bob@example.com", nil)

	if err := s.Data(strings.NewReader(msg)); err != nil {
		t.Fatal(err)
	}
	if len(mailer.calls) != 1 {
		t.Fatalf("got %d sends, want 1", len(mailer.calls))
	}
	if mailer.calls[0].body == "" {
		t.Error("empty body must be replaced with a placeholder")
	}
}

func TestSession_Reset(t *testing.T) {
	s := newTestSession(&recordingMailer{})

	s.Mail("alice@example.com", nil)
	s.Rcpt("bob@example.com", nil)
	s.Reset()

	if s.from != "" || len(s.rcpts) != 0 {
		t.Errorf("after reset: from = %q, rcpts = %v", s.from, s.rcpts)
	}
}

func TestParseMessage_Multipart(t *testing.T) {
	msg := "From: alice@example.com\r\n" +
		"Subject: Mixed\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/alternative; boundary=b1\r\n" +
		"\r\n" +
		"--b1\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"plain text part\r\n" +
		"--b1\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<p>html part</p>\r\n" +
		"--b1--\r\n"

	subject, body := parseMessage([]byte(msg))

	if subject != "Mixed" {
		t.Errorf("subject = %q", subject)
	}
	if !strings.Contains(body, "plain text part") {
		t.Errorf("body = %q, want the text/plain part", body)
	}
	if strings.Contains(body, "html part") {
		t.Errorf("body = %q, html alternative must not win", body)
	}
}

func TestParseMessage_UnparseableFallsBackToRaw(t *testing.T) {
	raw := []byte("not an rfc822 message at all")

	_, body := parseMessage(raw)

	if body != string(raw) {
		t.Errorf("body = %q, want raw payload", body)
	}
}
