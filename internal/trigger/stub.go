package trigger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Stub is an Invoker that records requests and returns a canned response.
// Useful for testing and development.
type Stub struct {
	Logger *slog.Logger
	// Err, when set, is returned from every Invoke call.
	Err error

	mu    sync.Mutex
	calls []Request
}

// Invoke logs the request, records it, and returns a stub JSON result.
func (s *Stub) Invoke(_ context.Context, req Request) (json.RawMessage, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()

	if s.Logger != nil {
		s.Logger.Info("invoking agent",
			"session_id", req.SessionID,
			"agent", req.Agent,
			"message_len", len(req.Message),
		)
	}

	if s.Err != nil {
		return nil, s.Err
	}
	return json.RawMessage(fmt.Sprintf(`{"status":"ok","run_id":%q}`, uuid.New().String())), nil
}

// Calls returns a copy of all recorded requests in invocation order.
func (s *Stub) Calls() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.calls...)
}
