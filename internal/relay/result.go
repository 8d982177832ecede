package relay

// Status classifies the outcome of routing one InboundMessage.
type Status string

const (
	StatusMailSent    Status = "mail_sent"
	StatusMailFailed  Status = "mail_failed"
	StatusAgentReply  Status = "agent_reply"
	StatusAgentFailed Status = "agent_failed"
	StatusSkipped     Status = "skipped"
)

// DispatchResult is the outcome of routing exactly one InboundMessage.
// Exactly one of MessageID, Chunks, or Reason is meaningful per Status.
type DispatchResult struct {
	Status    Status
	MessageID string   // StatusMailSent: provider-assigned message ID
	Chunks    []string // StatusAgentReply: ordered reply fragments
	Reason    string   // failure reason or skip explanation
}

// OK reports whether the dispatch ended in a success variant.
func (r DispatchResult) OK() bool {
	return r.Status == StatusMailSent || r.Status == StatusAgentReply || r.Status == StatusSkipped
}

func mailSent(id string) DispatchResult {
	return DispatchResult{Status: StatusMailSent, MessageID: id}
}

func mailFailed(reason string) DispatchResult {
	return DispatchResult{Status: StatusMailFailed, Reason: reason}
}

func agentReply(chunks []string) DispatchResult {
	return DispatchResult{Status: StatusAgentReply, Chunks: chunks}
}

func agentFailed(reason string) DispatchResult {
	return DispatchResult{Status: StatusAgentFailed, Reason: reason}
}

// Skipped marks a recognized but unimplemented channel.
func Skipped(reason string) DispatchResult {
	return DispatchResult{Status: StatusSkipped, Reason: reason}
}
