package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// DefaultSubject is applied when a message arrives without one.
const DefaultSubject = "No Subject"

// SendEmailAPI is the slice of the SES v2 client the dispatcher needs.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Config holds the SES connection settings.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Sender          string // default From address
}

// Dispatcher sends outbound mail through Amazon SES.
type Dispatcher struct {
	client SendEmailAPI
	sender string
	log    *slog.Logger
}

// New builds a Dispatcher with a real SES client. Static credentials are used
// when provided, otherwise the default AWS credential chain applies.
func New(ctx context.Context, cfg Config, log *slog.Logger) (*Dispatcher, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewWithClient(sesv2.NewFromConfig(awsCfg), cfg.Sender, log), nil
}

// NewWithClient wires a Dispatcher around an existing client.
func NewWithClient(client SendEmailAPI, sender string, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{client: client, sender: sender, log: log}
}

// Send delivers one message to all recipients in a single provider call and
// returns the provider message ID. The sender override, when non-empty,
// replaces the configured From address for this message only.
func (d *Dispatcher) Send(ctx context.Context, recipients []string, subject, body, sender string) (string, error) {
	if len(recipients) == 0 {
		return "", fmt.Errorf("no recipients")
	}
	if subject == "" {
		subject = DefaultSubject
	}
	from := d.sender
	if sender != "" {
		from = sender
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination:      &types.Destination{ToAddresses: recipients},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
					Html: &types.Content{Data: aws.String(htmlBody(body))},
				},
			},
		},
	}

	out, err := d.client.SendEmail(ctx, input)
	if err != nil {
		return "", fmt.Errorf("ses send: %w", err)
	}
	id := aws.ToString(out.MessageId)
	d.log.Info("mail sent", "message_id", id, "recipients", len(recipients), "from", from)
	return id, nil
}

// htmlBody renders the plain-text body as a minimal HTML alternative. The
// text is carried verbatim apart from line breaks.
func htmlBody(body string) string {
	return strings.ReplaceAll(body, "\n", "<br>")
}
