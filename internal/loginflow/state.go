package loginflow

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sync"
)

// State is the advisory lockout state persisted between attempts. The
// JSON keys match what the browser client keeps in local storage.
type State struct {
	FailCount int `json:"login_fail_count"`

	// LockUntil is an absolute timestamp in Unix milliseconds; zero means
	// not locked.
	LockUntil int64 `json:"login_lock_until"`
}

// StateStore persists lockout state between attempts.
type StateStore interface {
	Load() (State, error)
	Save(State) error
	Clear() error
}

// MemoryStore keeps state in process, for tests and throwaway sessions.
type MemoryStore struct {
	mu    sync.Mutex
	state State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, nil
}

func (s *MemoryStore) Save(state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{}
	return nil
}

// FileStore persists state as a small JSON file, the CLI's counterpart to
// browser local storage. A missing file loads as the zero state.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) Load() (State, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return State{}, nil
		}
		return State{}, err
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		// Corrupt state files degrade to "no lockout", matching the
		// advisory nature of the whole mechanism.
		return State{}, nil
	}
	return state, nil
}

func (s *FileStore) Save(state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, data, 0o600)
}

func (s *FileStore) Clear() error {
	err := os.Remove(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
