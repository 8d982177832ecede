// Package relay defines the normalized inbound message model and the router
// that dispatches messages to the mail provider or the agent orchestrator.
// Every transport adapter (HTTP, SMTP, Discord) converges on this package.
package relay

import (
	"fmt"
	"strings"
)

// Channel identifies the delivery medium of a normalized request.
type Channel string

const (
	// ChannelEmail routes to the outbound mail dispatcher.
	ChannelEmail Channel = "email"
	// ChannelAgent routes to the agent session orchestrator.
	ChannelAgent Channel = "agent"
)

// Attachment is a file carried by an agent-channel message.
type Attachment struct {
	Filename string
	Data     []byte
}

// InboundMessage is the single internal request shape all adapters produce.
type InboundMessage struct {
	Channel        Channel
	SenderIdentity string // email address, SMTP MAIL FROM, or chat user ID
	Recipients     []string
	Subject        string
	Body           string
	Attachments    []Attachment
}

// Validate rejects messages that must not enter the router: a message with an
// empty body is only acceptable when it carries at least one attachment.
func (m *InboundMessage) Validate() error {
	if strings.TrimSpace(m.Body) == "" && len(m.Attachments) == 0 {
		return fmt.Errorf("empty body and no attachments")
	}
	return nil
}
