package trigger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestBuildArgs(t *testing.T) {
	cases := []struct {
		name string
		req  Request
		want []string
	}{
		{
			name: "message only",
			req:  Request{Message: "hello"},
			want: []string{"agent", "--message", "hello", "--json"},
		},
		{
			name: "with session",
			req:  Request{Message: "hi", SessionID: "agentlink:bob"},
			want: []string{"agent", "--message", "hi", "--session-id", "agentlink:bob", "--json"},
		},
		{
			name: "with agent",
			req:  Request{Message: "hi", Agent: "support"},
			want: []string{"agent", "--message", "hi", "--agent", "support", "--json"},
		},
		{
			name: "with session and agent",
			req:  Request{Message: "hi", SessionID: "s1", Agent: "support"},
			want: []string{"agent", "--message", "hi", "--session-id", "s1", "--agent", "support", "--json"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := buildArgs(tc.req)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("buildArgs = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCLIRunner_EmptyMessage(t *testing.T) {
	r := &CLIRunner{Command: "true", Logger: slog.Default()}

	_, err := r.Invoke(context.Background(), Request{})
	if !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("err = %v, want ErrEmptyMessage", err)
	}
}

func TestCLIRunner_MissingCommand(t *testing.T) {
	r := &CLIRunner{Command: "/nonexistent/agent-binary", Logger: slog.Default()}

	_, err := r.Invoke(context.Background(), Request{Message: "hello"})
	if err == nil {
		t.Fatal("expected error for missing command, got nil")
	}
}

// fakeAgent writes an executable shell script standing in for the agent binary.
func fakeAgent(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-agent")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCLIRunner_PassesResultThrough(t *testing.T) {
	cmd := fakeAgent(t, `echo '{"status":"ok","run":"r1"}'`)
	r := &CLIRunner{Command: cmd, Logger: slog.Default()}

	out, err := r.Invoke(context.Background(), Request{Message: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != `{"status":"ok","run":"r1"}` {
		t.Errorf("output = %s, want the agent's JSON unchanged", out)
	}
}

func TestCLIRunner_WrapsNonJSONOutput(t *testing.T) {
	cmd := fakeAgent(t, `echo done`)
	r := &CLIRunner{Command: cmd, Logger: slog.Default()}

	out, err := r.Invoke(context.Background(), Request{Message: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wrapped struct {
		Output string `json:"output"`
	}
	if err := json.Unmarshal(out, &wrapped); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if wrapped.Output != "done" {
		t.Errorf("output = %q, want %q", wrapped.Output, "done")
	}
}

func TestCLIRunner_NonZeroExitSurfacesStderr(t *testing.T) {
	cmd := fakeAgent(t, `echo "agent blew up" >&2; exit 3`)
	r := &CLIRunner{Command: cmd, Logger: slog.Default()}

	_, err := r.Invoke(context.Background(), Request{Message: "hello"})
	if err == nil {
		t.Fatal("expected error for non-zero exit, got nil")
	}
	if !strings.Contains(err.Error(), "agent blew up") {
		t.Errorf("error %q should contain the agent's stderr", err)
	}
}

func TestCLIRunner_Timeout(t *testing.T) {
	cmd := fakeAgent(t, `sleep 5`)
	r := &CLIRunner{Command: cmd, Timeout: 50 * time.Millisecond, Logger: slog.Default()}

	start := time.Now()
	_, err := r.Invoke(context.Background(), Request{Message: "hello"})
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("error %q should mention the timeout", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("invoke took %v, expected prompt timeout", elapsed)
	}
}

func TestCLIRunner_BackgroundChildDoesNotStallInvoke(t *testing.T) {
	// The agent exits immediately but leaves a child holding the output pipe.
	cmd := fakeAgent(t, "sleep 5 &\necho '{\"status\":\"ok\"}'")
	r := &CLIRunner{Command: cmd, Logger: slog.Default()}

	start := time.Now()
	out, err := r.Invoke(context.Background(), Request{Message: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("invoke took %v, expected return shortly after the agent exits", elapsed)
	}
	if string(out) != `{"status":"ok"}` {
		t.Errorf("output = %s, want the agent's JSON unchanged", out)
	}
}

func TestStub_RecordsCalls(t *testing.T) {
	var buf bytes.Buffer
	stub := &Stub{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	req := Request{Message: "From bob: hi", SessionID: "agentlink:bob"}
	out, err := stub.Invoke(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp struct {
		Status string `json:"status"`
		RunID  string `json:"run_id"`
	}
	if err := json.Unmarshal(out, &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want %q", resp.Status, "ok")
	}
	if _, err := uuid.Parse(resp.RunID); err != nil {
		t.Errorf("run_id %q is not a valid UUID: %v", resp.RunID, err)
	}

	calls := stub.Calls()
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	if calls[0] != req {
		t.Errorf("recorded call = %+v, want %+v", calls[0], req)
	}
}

func TestStub_ReturnsConfiguredError(t *testing.T) {
	wantErr := errors.New("agent unavailable")
	stub := &Stub{Err: wantErr}

	_, err := stub.Invoke(context.Background(), Request{Message: "hi"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if len(stub.Calls()) != 1 {
		t.Error("failed invocations should still be recorded")
	}
}

func TestImplementsInvoker(t *testing.T) {
	var _ Invoker = (*CLIRunner)(nil)
	var _ Invoker = (*Stub)(nil)
}
