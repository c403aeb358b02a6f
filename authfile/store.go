package authfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrCorrupt is returned when the auth file exists but cannot be parsed.
// A missing file is not an error; it yields the bootstrap tree.
var ErrCorrupt = errors.New("auth file corrupt")

// Store is the single source of truth for the credential tree. It lazily
// loads the backing file on first access, caches the parsed tree, and
// serializes every mutation through an exclusive load-mutate-persist cycle.
// One Store is constructed per process and shared by reference.
type Store struct {
	path string

	mu    sync.RWMutex
	cache *Tree
}

// NewStore creates a store for the auth file at path. No I/O happens until
// the first access.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// View runs fn against the current tree under the shared lock. fn must treat
// the tree as read-only and must not retain it past the call; use Snapshot
// for a tree that outlives the lock.
func (s *Store) View(fn func(*Tree) error) error {
	s.mu.RLock()
	if t := s.cache; t != nil {
		defer s.mu.RUnlock()
		return fn(t)
	}
	s.mu.RUnlock()

	// First access: take the exclusive lock to populate the cache. Running fn
	// under the exclusive lock is strictly safe for a reader.
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.loadLocked()
	if err != nil {
		return err
	}
	return fn(t)
}

// Snapshot returns a deep copy of the current tree.
func (s *Store) Snapshot() (*Tree, error) {
	var out *Tree
	err := s.View(func(t *Tree) error {
		out = t.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Modify runs fn against a private clone of the current tree under the
// exclusive lock, persists the clone when fn succeeds, and swaps it in as the
// new cache. When fn returns an error nothing is persisted and the cache
// stays at its pre-call value, so a failed mutation can never leave a dirty
// tree behind. Callers retaining a pre-mutation tree are unaffected by the
// swap.
func (s *Store) Modify(fn func(*Tree) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.loadLocked()
	if err != nil {
		return err
	}

	work := current.Clone()
	if err := fn(work); err != nil {
		return err
	}

	if err := s.saveLocked(work); err != nil {
		return err
	}

	// Cache a second copy so references the mutator kept cannot reach the
	// cached tree.
	s.cache = work.Clone()
	return nil
}

func (s *Store) loadLocked() (*Tree, error) {
	if s.cache != nil {
		return s.cache, nil
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			// First-time retrieval on an unprovisioned system.
			s.cache = NewTree()
			return s.cache, nil
		}
		return nil, fmt.Errorf("read auth file: %w", err)
	}

	tree := NewTree()
	if err := yaml.Unmarshal(raw, tree); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if tree.Users == nil {
		tree.Users = []*User{}
	}
	s.cache = tree
	return s.cache, nil
}

// saveLocked writes the whole tree, replacing the backing file. The write
// goes through a temp file in the same directory followed by a rename, so a
// crash mid-write leaves the previous file intact.
func (s *Store) saveLocked(t *Tree) error {
	raw, err := yaml.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode auth file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create auth file directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".auth-*.yml")
	if err != nil {
		return fmt.Errorf("create temp auth file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp auth file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write auth file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp auth file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace auth file: %w", err)
	}
	return nil
}
