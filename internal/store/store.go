// Package store carries state between the independent processes spawned by
// one rebase. Entries are flat key/value strings scoped to a repository.
//
// A FileStore keeps one file per key under the repository's private git
// directory and survives process exit. When no repository is discoverable a
// MemoryStore is used instead; it lives only as long as the current process,
// so callers that span processes (an isolated or sandboxed invocation) must
// not rely on it.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gofrs/flock"
)

// Keys used by the engine.
const (
	KeyOldStep        = "old-step"         // step being edited when the current pass started
	KeyNewStep        = "new-step"         // step HEAD ended on after push/pop/tag
	KeyHooksDisabled  = "hooks-disabled"   // set past the renumbering limit
	KeyForcedHookStep = "forced-hook-step" // step prefix stripped by prepare-commit-msg
	KeyStepMap        = "step-map"         // JSON old->new step ids of the running rebase
	KeyStepMapPending = "step-map-pending" // a submodule step map awaits super-pick
	KeySubmoduleCwd   = "submodule-cwd"    // path of the repository that produced step-map
	KeyStrictMode     = "strict-mode"      // hook policy enforcement
	KeyInitialized    = "initialized"      // repository prepared by init
	KeySession        = "session"          // id shared by every process of one rebase
)

// transientKeys are left stale by `git rebase --abort` and are cleared at the
// start of every top-level edit.
var transientKeys = []string{
	KeyOldStep,
	KeyNewStep,
	KeyHooksDisabled,
	KeyForcedHookStep,
	KeyStepMap,
	KeyStepMapPending,
	KeySubmoduleCwd,
	KeySession,
}

var (
	ErrNotInitialized     = errors.New("repository is not initialized, run 'stepwise init' first")
	ErrAlreadyInitialized = errors.New("repository is already initialized")
)

// Store is a durable key/value map. Get returns "" for unset keys.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
	// Keys lists the keys currently set, sorted.
	Keys() ([]string, error)
}

// FileStore keeps one file per key.
type FileStore struct {
	dir  string
	lock *flock.Flock
}

// NewFileStore returns a store rooted at dir, creating it when missing.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating store dir %s: %w", dir, err)
	}
	return &FileStore{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, ".lock")),
	}, nil
}

// Open returns the store of the repository whose git directory is gitDir, or
// a MemoryStore when gitDir is empty.
func Open(gitDir string) (Store, error) {
	if gitDir == "" {
		return NewMemoryStore(), nil
	}
	return NewFileStore(filepath.Join(gitDir, "stepwise", "store"))
}

func (s *FileStore) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("store: invalid key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}

func (s *FileStore) Get(key string) (string, error) {
	p, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := s.lock.RLock(); err != nil {
		return "", fmt.Errorf("store: locking: %w", err)
	}
	defer s.lock.Unlock()

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

func (s *FileStore) Set(key, value string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("store: locking: %w", err)
	}
	defer s.lock.Unlock()
	return writeFileAtomic(p, []byte(value), 0644)
}

func (s *FileStore) Remove(key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("store: locking: %w", err)
	}
	defer s.lock.Unlock()
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FileStore) Keys() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		keys = append(keys, e.Name())
	}
	return keys, nil
}

// MemoryStore is the process-local fallback used outside a repository.
type MemoryStore struct {
	mu sync.Mutex
	m  map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[key], nil
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *MemoryStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

func (s *MemoryStore) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.m))
	for k, v := range s.m {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// IsSet reports whether key holds a non-empty value. Read errors count as unset
// so a partially initialized repository behaves like a clean one.
func IsSet(s Store, key string) bool {
	v, err := s.Get(key)
	return err == nil && v != ""
}

// AssertInitialized fails when the initialized flag does not match expected.
func AssertInitialized(s Store, expected bool) error {
	if IsSet(s, KeyInitialized) == expected {
		return nil
	}
	if expected {
		return ErrNotInitialized
	}
	return ErrAlreadyInitialized
}

// ClearTransient removes every key scoped to a single rebase.
func ClearTransient(s Store) error {
	for _, k := range transientKeys {
		if err := s.Remove(k); err != nil {
			return fmt.Errorf("clearing %s: %w", k, err)
		}
	}
	return nil
}

// IsTransient reports whether key is scoped to a single rebase.
func IsTransient(key string) bool {
	for _, k := range transientKeys {
		if k == key {
			return true
		}
	}
	return false
}
