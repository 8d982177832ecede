package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
)

type fakeSES struct {
	id   string
	err  error
	last *sesv2.SendEmailInput
}

func (f *fakeSES) SendEmail(_ context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.last = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String(f.id)}, nil
}

func TestSend_ReturnsProviderMessageID(t *testing.T) {
	ses := &fakeSES{id: "abc123"}
	d := NewWithClient(ses, "relay@example.com", nil)

	id, err := d.Send(context.Background(), []string{"to@example.com"}, "Hello", "body", "")
	if err != nil {
		t.Fatal(err)
	}
	if id != "abc123" {
		t.Errorf("id = %q, want abc123", id)
	}
	if got := aws.ToString(ses.last.FromEmailAddress); got != "relay@example.com" {
		t.Errorf("from = %q, want configured sender", got)
	}
}

func TestSend_BodyRendering(t *testing.T) {
	ses := &fakeSES{id: "x"}
	d := NewWithClient(ses, "relay@example.com", nil)

	body := "line one\nline two\nline three"
	if _, err := d.Send(context.Background(), []string{"to@example.com"}, "s", body, ""); err != nil {
		t.Fatal(err)
	}

	content := ses.last.Content.Simple
	if got := aws.ToString(content.Body.Text.Data); got != body {
		t.Errorf("text body = %q, must be carried verbatim", got)
	}
	if got := aws.ToString(content.Body.Html.Data); got != "line one<br>line two<br>line three" {
		t.Errorf("html body = %q", got)
	}
}

func TestSend_DefaultSubject(t *testing.T) {
	ses := &fakeSES{id: "x"}
	d := NewWithClient(ses, "relay@example.com", nil)

	if _, err := d.Send(context.Background(), []string{"to@example.com"}, "", "hi", ""); err != nil {
		t.Fatal(err)
	}

	if got := aws.ToString(ses.last.Content.Simple.Subject.Data); got != DefaultSubject {
		t.Errorf("subject = %q, want %q", got, DefaultSubject)
	}
}

func TestSend_SenderOverride(t *testing.T) {
	ses := &fakeSES{id: "x"}
	d := NewWithClient(ses, "relay@example.com", nil)

	if _, err := d.Send(context.Background(), []string{"to@example.com"}, "s", "b", "other@example.com"); err != nil {
		t.Fatal(err)
	}

	if got := aws.ToString(ses.last.FromEmailAddress); got != "other@example.com" {
		t.Errorf("from = %q, want override", got)
	}
}

func TestSend_MultipleRecipientsSingleCall(t *testing.T) {
	ses := &fakeSES{id: "x"}
	d := NewWithClient(ses, "relay@example.com", nil)

	rcpts := []string{"a@example.com", "b@example.com", "c@example.com"}
	if _, err := d.Send(context.Background(), rcpts, "s", "b", ""); err != nil {
		t.Fatal(err)
	}

	if got := ses.last.Destination.ToAddresses; len(got) != 3 {
		t.Errorf("to addresses = %v, want all three in one call", got)
	}
}

func TestSend_ProviderError(t *testing.T) {
	ses := &fakeSES{err: errors.New("throttled")}
	d := NewWithClient(ses, "relay@example.com", nil)

	if _, err := d.Send(context.Background(), []string{"to@example.com"}, "s", "b", ""); err == nil {
		t.Fatal("want error from provider")
	}
}

func TestSend_NoRecipients(t *testing.T) {
	ses := &fakeSES{id: "x"}
	d := NewWithClient(ses, "relay@example.com", nil)

	if _, err := d.Send(context.Background(), nil, "s", "b", ""); err == nil {
		t.Fatal("want error for empty recipient list")
	}
	if ses.last != nil {
		t.Error("provider must not be called without recipients")
	}
}
