package delivery

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("delivery not found")
	ErrInvalidCapacity = errors.New("capacity must be greater than zero")
)

// MemoryStore retains the most recent deliveries in a fixed-capacity ring
// buffer with an ID index for O(1) lookups. Both bridge paths write to it,
// so it is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	buf   []Record          // ring buffer
	index map[uuid.UUID]int // delivery ID → position in buf
	cap   int               // maximum capacity
	count int               // current number of retained records
	head  int               // next write position
}

// NewMemoryStore creates a MemoryStore with the given capacity.
func NewMemoryStore(capacity int) (*MemoryStore, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &MemoryStore{
		buf:   make([]Record, capacity),
		index: make(map[uuid.UUID]int, capacity),
		cap:   capacity,
	}, nil
}

// Save records a delivery. At capacity, the oldest record is evicted.
func (s *MemoryStore) Save(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// If overwriting an existing slot, remove the old record from the index.
	if s.count == s.cap {
		old := s.buf[s.head]
		delete(s.index, old.ID)
	}

	s.buf[s.head] = rec
	s.index[rec.ID] = s.head

	s.head = (s.head + 1) % s.cap
	if s.count < s.cap {
		s.count++
	}

	return nil
}

// Get retrieves a delivery by ID in O(1) time.
func (s *MemoryStore) Get(id uuid.UUID) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.index[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return s.buf[pos], nil
}

// List returns up to limit deliveries ordered newest-first, skipping the
// first offset results.
func (s *MemoryStore) List(limit, offset int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		return nil, nil
	}
	if offset < 0 {
		offset = 0
	}

	// Walk backwards from the most recently written slot.
	result := make([]Record, 0, min(limit, s.count))
	skipped := 0
	for i := 0; i < s.count; i++ {
		pos := (s.head - 1 - i + s.cap) % s.cap
		if skipped < offset {
			skipped++
			continue
		}
		result = append(result, s.buf[pos])
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

// Count returns the number of deliveries currently retained.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}
