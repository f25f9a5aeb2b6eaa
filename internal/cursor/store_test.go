package cursor

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFile(t *testing.T) {
	s := &Store{Path: filepath.Join(t.TempDir(), "cursor.json")}

	if c, ok := s.Load(); ok {
		t.Fatalf("expected absent cursor, got %q", c)
	}
}

func TestLoad_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cursor.json")
	if err := os.WriteFile(path, []byte(`{"cursor":"abc"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	s := &Store{Path: path}
	c, ok := s.Load()
	if !ok {
		t.Fatal("expected cursor present")
	}
	if c != "abc" {
		t.Errorf("cursor = %q, want %q", c, "abc")
	}
}

func TestLoad_InvalidContent(t *testing.T) {
	cases := map[string]string{
		"not json":         "not json at all",
		"empty object":     "{}",
		"empty cursor":     `{"cursor":""}`,
		"wrong value type": `{"cursor":42}`,
		"array":            `["cursor"]`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cursor.json")
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				t.Fatal(err)
			}

			s := &Store{Path: path}
			if c, ok := s.Load(); ok {
				t.Errorf("expected absent cursor for %q, got %q", content, c)
			}
		})
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s := &Store{Path: filepath.Join(t.TempDir(), "cursor.json")}

	if err := s.Save("evt-00042"); err != nil {
		t.Fatalf("save: %v", err)
	}

	c, ok := s.Load()
	if !ok {
		t.Fatal("expected cursor present after save")
	}
	if c != "evt-00042" {
		t.Errorf("cursor = %q, want %q", c, "evt-00042")
	}
}

func TestSave_CreatesParentDirectories(t *testing.T) {
	s := &Store{Path: filepath.Join(t.TempDir(), "nested", "deeper", "cursor.json")}

	if err := s.Save("c1"); err != nil {
		t.Fatalf("save: %v", err)
	}

	if c, ok := s.Load(); !ok || c != "c1" {
		t.Errorf("load after save = (%q, %v), want (%q, true)", c, ok, "c1")
	}
}

func TestSave_Overwrites(t *testing.T) {
	s := &Store{Path: filepath.Join(t.TempDir(), "cursor.json")}

	if err := s.Save("first"); err != nil {
		t.Fatal(err)
	}
	if err := s.Save("second"); err != nil {
		t.Fatal(err)
	}

	if c, _ := s.Load(); c != "second" {
		t.Errorf("cursor = %q, want %q", c, "second")
	}
}
