package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// EmptyResponse is returned when the agent exits cleanly but produces no
// usable text.
const EmptyResponse = "😶 The Oracle is silent. (Empty response)"

// Orchestrator owns the conversation lifecycle: session lookup, prompt
// composition, process execution and response extraction. It implements
// relay.Converser.
type Orchestrator struct {
	runner       Runner
	table        *Table
	personaDir   string // vault-relative directory holding persona files
	systemPrompt string // loaded once at construction
	log          *slog.Logger
}

// NewOrchestrator loads the system prompt from systemPromptPath (missing file
// is tolerated, the prompt section is simply omitted) and wires the runner
// and session table together.
func NewOrchestrator(runner Runner, table *Table, personaDir, systemPromptPath string, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	o := &Orchestrator{
		runner:     runner,
		table:      table,
		personaDir: personaDir,
		log:        log,
	}
	if systemPromptPath != "" {
		data, err := os.ReadFile(systemPromptPath)
		if err != nil {
			log.Warn("system prompt unavailable", "path", systemPromptPath, "error", err)
		} else {
			o.systemPrompt = strings.TrimSpace(string(data))
		}
	}
	return o
}

// Converse runs one turn for the given identity. Calls for the same identity
// serialize on the session lock; distinct identities proceed in parallel.
func (o *Orchestrator) Converse(ctx context.Context, identity, persona, prompt string) (string, error) {
	sess, release := o.table.Acquire(identity)
	defer release()

	composed := o.composePrompt(persona, prompt)
	req := RunRequest{Prompt: composed, ResumeToken: sess.Token}

	res, err := o.runner.Run(ctx, req)
	if err != nil && sess.Token != "" && !errors.Is(err, ErrTimeout) {
		// A stale or expired token makes the resume flag itself fail.
		// Retry exactly once with a fresh conversation.
		o.log.Warn("resume failed, retrying without session", "identity", identity, "error", err)
		req.ResumeToken = ""
		res, err = o.runner.Run(ctx, req)
	}
	if err != nil {
		if msg := strings.TrimSpace(res.Stderr); msg != "" {
			return "", fmt.Errorf("agent process failed: %s: %w", msg, err)
		}
		return "", err
	}

	ext := Extract(res.Stdout)
	if ext.SessionToken != "" && ext.SessionToken != sess.Token {
		sess.Token = ext.SessionToken
		sess.Persona = persona
		o.table.Commit(ctx, sess)
	}

	reply := strings.TrimSpace(ext.Response)
	if reply == "" {
		return EmptyResponse, nil
	}
	return reply, nil
}

func (o *Orchestrator) composePrompt(persona, content string) string {
	var b strings.Builder
	if o.systemPrompt != "" {
		b.WriteString("[SYSTEM PROMPT]\n")
		b.WriteString(o.systemPrompt)
		b.WriteString("\n[END SYSTEM PROMPT]\n\n")
	}
	if persona != "" {
		fmt.Fprintf(&b, "[ACTIVE PERSONA: %s]\nRead and adopt the directives in %s.\n\n",
			persona, filepath.Join(o.personaDir, persona+".md"))
	}
	b.WriteString("[USER MESSAGE]\n")
	b.WriteString(content)
	return b.String()
}
