package trigger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/openclaw/agentlink/internal/metrics"
)

// DefaultTimeout bounds an agent run when no timeout is configured.
const DefaultTimeout = 120 * time.Second

// ErrEmptyMessage is returned when a request carries no message text.
var ErrEmptyMessage = errors.New("empty message")

// CLIRunner invokes the agent by shelling out to the configured command:
//
//	<command> agent --message <text> [--session-id <id>] [--agent <name>] --json
//
// A run that exceeds the timeout or exits non-zero fails; the runner never
// retries; callers log and move on.
type CLIRunner struct {
	Command string
	Timeout time.Duration
	Logger  *slog.Logger
}

func (r *CLIRunner) Invoke(ctx context.Context, req Request) (json.RawMessage, error) {
	if req.Message == "" {
		return nil, ErrEmptyMessage
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.Command, buildArgs(req)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Killing the direct child does not reach descendants that inherited the
	// output pipes; WaitDelay makes Wait abandon the pipes instead of blocking
	// until every holder exits.
	cmd.WaitDelay = time.Second

	if r.Logger != nil {
		r.Logger.Debug("running agent",
			"command", r.Command,
			"session_id", req.SessionID,
			"agent", req.Agent,
			"timeout", timeout,
		)
	}

	start := time.Now()
	err := cmd.Run()
	metrics.TriggerDuration.Observe(time.Since(start).Seconds())

	// ErrWaitDelay means the agent itself exited cleanly but something it
	// spawned still holds the pipes; treat the run as successful.
	if err != nil && !errors.Is(err, exec.ErrWaitDelay) {
		diag := strings.TrimSpace(stderr.String())
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("agent timed out after %v: %s", timeout, diag)
		}
		return nil, fmt.Errorf("agent run failed: %w: %s", err, diag)
	}

	out := bytes.TrimSpace(stdout.Bytes())
	if len(out) == 0 || !json.Valid(out) {
		// The agent runs in JSON output mode, but keep non-JSON output usable.
		wrapped, _ := json.Marshal(map[string]string{"output": string(out)})
		return wrapped, nil
	}
	return out, nil
}

func buildArgs(req Request) []string {
	args := []string{"agent", "--message", req.Message}
	if req.SessionID != "" {
		args = append(args, "--session-id", req.SessionID)
	}
	if req.Agent != "" {
		args = append(args, "--agent", req.Agent)
	}
	return append(args, "--json")
}
