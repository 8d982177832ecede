package smtp

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	gosmtp "github.com/emersion/go-smtp"

	"github.com/pantheonlabs/hermes/internal/relay"
)

// Backend creates one relay session per SMTP connection.
type Backend struct {
	router *relay.Router
}

func (b *Backend) NewSession(c *gosmtp.Conn) (gosmtp.Session, error) {
	return &session{router: b.router}, nil
}

// session accumulates the envelope across the SMTP dialogue. On DATA the
// message body is parsed once and relayed independently to each recipient;
// any failed relay fails the whole transaction so the peer retries.
type session struct {
	router *relay.Router
	from   string
	rcpts  []string
}

func (s *session) Mail(from string, opts *gosmtp.MailOptions) error {
	s.from = from
	return nil
}

func (s *session) Rcpt(to string, opts *gosmtp.RcptOptions) error {
	s.rcpts = append(s.rcpts, to)
	return nil
}

func (s *session) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return &gosmtp.SMTPError{Code: 451, Message: "failed to read message"}
	}

	subject, body := parseMessage(raw)
	if strings.TrimSpace(body) == "" {
		// A subject-only message is still deliverable.
		body = " "
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	for _, rcpt := range s.rcpts {
		msg := relay.InboundMessage{
			Channel:        relay.ChannelEmail,
			SenderIdentity: s.from,
			Recipients:     []string{rcpt},
			Subject:        subject,
			Body:           body,
		}
		res := s.router.Route(ctx, msg)
		if !res.OK() {
			slog.Error("smtp relay failed", "rcpt", rcpt, "reason", res.Reason)
			return &gosmtp.SMTPError{Code: 500, Message: "delivery failed"}
		}
		slog.Info("smtp relayed", "rcpt", rcpt, "message_id", res.MessageID)
	}
	return nil
}

func (s *session) Reset() {
	s.from = ""
	s.rcpts = nil
}

func (s *session) Logout() error { return nil }

// parseMessage extracts the subject and the first inline text/plain part.
// Unparseable payloads fall back to the raw bytes so nothing is dropped.
func parseMessage(raw []byte) (subject, body string) {
	mr, err := mail.CreateReader(strings.NewReader(string(raw)))
	if err != nil {
		return "", string(raw)
	}
	subject, _ = mr.Header.Subject()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		if h, ok := part.Header.(*mail.InlineHeader); ok {
			ct, _, _ := h.ContentType()
			if ct == "text/plain" || ct == "" {
				data, err := io.ReadAll(part.Body)
				if err == nil {
					return subject, string(data)
				}
			}
		}
	}
	return subject, string(raw)
}
