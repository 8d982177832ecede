package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// RunRequest describes one agent process invocation.
type RunRequest struct {
	Prompt      string
	ResumeToken string // when set, the resume flag is appended
}

// RunResult carries the full captured output of a finished process. Output is
// never streamed partially; the orchestrator only trusts complete runs.
type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// ErrTimeout marks a run that was forcibly terminated at the deadline.
var ErrTimeout = errors.New("agent process timed out")

// Runner invokes the external agent process once per call.
type Runner interface {
	Run(ctx context.Context, req RunRequest) (RunResult, error)
}

// ProcessRunner spawns the configured agent binary as a child process with
// the vault as working directory, so relative file references resolve the
// same way across requests.
type ProcessRunner struct {
	Binary          string
	AutoApproveFlag string   // auto-approve tool/file operations ("--yolo")
	PromptFlag      string   // non-interactive prompt mode ("-p")
	ResumeFlag      string   // resume-by-token ("--resume")
	ExtraArgs       []string // appended before the prompt flag
	WorkDir         string   // the vault root
	Timeout         time.Duration
}

// Run executes the agent binary and captures stdout/stderr fully. A non-zero
// exit or spawn failure returns an error alongside the captured output; the
// error is fatal only to this request.
func (r *ProcessRunner) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := make([]string, 0, len(r.ExtraArgs)+6)
	args = append(args, r.AutoApproveFlag)
	args = append(args, r.ExtraArgs...)
	if req.ResumeToken != "" && r.ResumeFlag != "" {
		args = append(args, r.ResumeFlag, req.ResumeToken)
	}
	args = append(args, r.PromptFlag, req.Prompt)

	cmd := exec.CommandContext(ctx, r.Binary, args...)
	cmd.Dir = r.WorkDir
	cmd.WaitDelay = 5 * time.Second // SIGKILL stragglers after cancel

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := RunResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	if ctx.Err() == context.DeadlineExceeded {
		// Partial output from a killed process is not trusted.
		return RunResult{ExitCode: res.ExitCode}, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
	if err != nil {
		return res, fmt.Errorf("run %s: %w", r.Binary, err)
	}
	return res, nil
}
