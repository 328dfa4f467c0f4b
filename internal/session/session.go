// Package session stores the list of open repositories between runs.
package session

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/BurntSushi/toml"
)

type Session struct {
	Repos  []string `toml:"repos"`
	Active string   `toml:"active,omitempty"`
}

// Persister saves a session. It is called from executor workers.
type Persister interface {
	Persist(Session) error
}

// FileStore keeps the session in a TOML file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath returns ~/.config/gitdeck/session.toml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "session.toml"
	}
	return filepath.Join(home, ".config", "gitdeck", "session.toml")
}

func (f *FileStore) Path() string { return f.path }

// Load reads the session. A missing file is an empty session.
func (f *FileStore) Load() (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var s Session
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("reading session: %w", err)
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parsing session %s: %w", f.path, err)
	}
	if s.Active != "" && !slices.Contains(s.Repos, s.Active) {
		s.Active = ""
	}
	return s, nil
}

// Persist replaces the session file atomically.
func (f *FileStore) Persist(s Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s); err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*.toml")
	if err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	_, werr := tmp.Write(buf.Bytes())
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		return errors.Join(fmt.Errorf("writing session: %w", err), os.Remove(tmp.Name()))
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return errors.Join(fmt.Errorf("replacing session: %w", err), os.Remove(tmp.Name()))
	}
	return nil
}

// Discard is a Persister that drops every session.
type Discard struct{}

func (Discard) Persist(Session) error { return nil }
