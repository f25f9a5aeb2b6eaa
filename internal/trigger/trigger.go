package trigger

import (
	"context"
	"encoding/json"
)

// Request describes one agent invocation.
type Request struct {
	// Message is the text handed to the agent. Required.
	Message string
	// SessionID continues an existing agent session when non-empty.
	SessionID string
	// Agent selects a named agent when non-empty.
	Agent string
}

// Invoker runs the external agent capability with a message and optional
// session continuation or agent selection. Implementations return the
// agent's JSON result on success.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (json.RawMessage, error)
}
