package delivery

import (
	"time"

	"github.com/google/uuid"
)

// Source identifies which bridge path produced a delivery.
type Source string

const (
	SourcePush Source = "push"
	SourcePull Source = "pull"
)

// Status is the outcome of the agent invocation for a delivery.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Record is one agent invocation as seen by either bridge path.
type Record struct {
	ID        uuid.UUID `json:"id"`
	Source    Source    `json:"source"`
	Sender    string    `json:"sender,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Agent     string    `json:"agent,omitempty"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Store defines the interface for recording and querying recent deliveries.
type Store interface {
	// Save records a delivery. Returns an error if the record is invalid.
	Save(rec Record) error

	// Get retrieves a delivery by ID. Returns an error if not found.
	Get(id uuid.UUID) (Record, error)

	// List returns up to limit deliveries, ordered newest-first.
	// offset skips the first N results for pagination.
	List(limit, offset int) ([]Record, error)

	// Count returns the total number of deliveries currently retained.
	Count() int
}
