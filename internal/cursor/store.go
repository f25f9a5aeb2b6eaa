package cursor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store persists the stream checkpoint as a single JSON file of the form
// {"cursor":"<token>"}.
//
// The checkpoint is best-effort: a lost write only means the next reconnect
// replays already-processed events, which the at-least-once contract allows.
// Load therefore never surfaces an error: anything unreadable is "absent".
type Store struct {
	Path string
}

type fileFormat struct {
	Cursor string `json:"cursor"`
}

// Load returns the persisted cursor and true, or ("", false) when the file
// is missing, unreadable, or does not contain a non-empty cursor string.
func (s *Store) Load() (string, bool) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return "", false
	}

	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return "", false
	}
	if f.Cursor == "" {
		return "", false
	}
	return f.Cursor, true
}

// Save writes the cursor, creating parent directories as needed. Callers
// treat a returned error as degradation to at-least-once replay, not as a
// failure of the stream itself.
func (s *Store) Save(cursor string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("creating cursor dir: %w", err)
	}

	data, err := json.Marshal(fileFormat{Cursor: cursor})
	if err != nil {
		return fmt.Errorf("encoding cursor: %w", err)
	}

	if err := os.WriteFile(s.Path, data, 0o600); err != nil {
		return fmt.Errorf("writing cursor file: %w", err)
	}
	return nil
}
