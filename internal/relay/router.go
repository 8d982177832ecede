package relay

import (
	"context"
	"log/slog"
)

// MailSender submits an outbound email and returns the provider message ID.
type MailSender interface {
	Send(ctx context.Context, recipients []string, subject, body, sender string) (string, error)
}

// Converser runs one turn of an agent conversation for an identity and
// returns the resolved response text.
type Converser interface {
	Converse(ctx context.Context, identity, persona, prompt string) (string, error)
}

// PersonaResolver matches a leading trigger token in a message body to a
// persona name and returns the body with the trigger stripped.
type PersonaResolver interface {
	Resolve(body string) (persona, remainder string, matched bool)
}

// Router resolves channel and persona for each inbound message and delegates
// to the mail dispatcher or the agent orchestrator. It holds no state across
// calls and is safe for concurrent use.
type Router struct {
	mailer   MailSender
	agent    Converser
	personas PersonaResolver

	defaultSender  string // sender when the message carries no identity
	defaultPersona string
	maxChunk       int
}

// NewRouter builds a router. maxChunk bounds each agent reply fragment.
func NewRouter(mailer MailSender, agent Converser, personas PersonaResolver, defaultSender, defaultPersona string, maxChunk int) *Router {
	return &Router{
		mailer:         mailer,
		agent:          agent,
		personas:       personas,
		defaultSender:  defaultSender,
		defaultPersona: defaultPersona,
		maxChunk:       maxChunk,
	}
}

// Route dispatches one validated InboundMessage and returns exactly one
// DispatchResult. Provider and process failures are converted into failure
// variants here; they never propagate as errors.
func (r *Router) Route(ctx context.Context, msg InboundMessage) DispatchResult {
	switch msg.Channel {
	case ChannelEmail:
		return r.routeEmail(ctx, msg)
	case ChannelAgent:
		return r.routeAgent(ctx, msg)
	default:
		slog.Debug("channel not implemented, skipping", "channel", msg.Channel)
		return Skipped(string(msg.Channel) + " channel not yet implemented")
	}
}

func (r *Router) routeEmail(ctx context.Context, msg InboundMessage) DispatchResult {
	sender := r.defaultSender
	if msg.SenderIdentity != "" {
		sender = msg.SenderIdentity
	}

	id, err := r.mailer.Send(ctx, msg.Recipients, msg.Subject, msg.Body, sender)
	if err != nil {
		slog.Error("mail dispatch failed", "recipients", msg.Recipients, "error", err)
		return mailFailed(err.Error())
	}
	return mailSent(id)
}

func (r *Router) routeAgent(ctx context.Context, msg InboundMessage) DispatchResult {
	persona, prompt, matched := r.personas.Resolve(msg.Body)
	if !matched {
		persona = r.defaultPersona
		prompt = msg.Body
	}

	slog.Debug("routing to agent", "identity", msg.SenderIdentity, "persona", persona)

	text, err := r.agent.Converse(ctx, msg.SenderIdentity, persona, prompt)
	if err != nil {
		return agentFailed(err.Error())
	}
	return agentReply(Chunk(text, r.maxChunk))
}
