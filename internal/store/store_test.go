package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestFileStore_GetUnset(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "store"))
	if err != nil {
		t.Fatal(err)
	}
	v, err := s.Get(KeyOldStep)
	if err != nil {
		t.Fatal(err)
	}
	if v != "" {
		t.Fatalf("got %q, want empty", v)
	}
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	gitDir := t.TempDir()
	s, err := Open(gitDir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(KeyNewStep, "1.2"); err != nil {
		t.Fatal(err)
	}

	// A second process opens the same repository.
	s2, err := Open(gitDir)
	if err != nil {
		t.Fatal(err)
	}
	v, err := s2.Get(KeyNewStep)
	if err != nil {
		t.Fatal(err)
	}
	if v != "1.2" {
		t.Fatalf("got %q, want 1.2", v)
	}

	if err := s2.Remove(KeyNewStep); err != nil {
		t.Fatal(err)
	}
	if IsSet(s, KeyNewStep) {
		t.Fatal("key should be removed")
	}
	// Removing twice is not an error
	if err := s2.Remove(KeyNewStep); err != nil {
		t.Fatal(err)
	}
}

func TestFileStore_Keys(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s.Set(KeyOldStep, "1")
	s.Set(KeyHooksDisabled, "1")
	keys, err := s.Keys()
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 {
		t.Fatalf("keys = %v", keys)
	}
}

func TestFileStore_InvalidKey(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"", "../x", ".lock", "a/b"} {
		if err := s.Set(k, "v"); err == nil {
			t.Fatalf("Set(%q) should fail", k)
		}
	}
}

func TestOpen_NoRepositoryFallsBackToMemory(t *testing.T) {
	s, err := Open("")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Fatalf("got %T, want *MemoryStore", s)
	}
	s.Set(KeyStrictMode, "true")
	if !IsSet(s, KeyStrictMode) {
		t.Fatal("memory store lost value within process")
	}
}

func TestAssertInitialized(t *testing.T) {
	s := NewMemoryStore()
	if err := AssertInitialized(s, true); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("got %v, want ErrNotInitialized", err)
	}
	if err := AssertInitialized(s, false); err != nil {
		t.Fatal(err)
	}
	s.Set(KeyInitialized, "1")
	if err := AssertInitialized(s, true); err != nil {
		t.Fatal(err)
	}
	if err := AssertInitialized(s, false); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("got %v, want ErrAlreadyInitialized", err)
	}
}

func TestClearTransient(t *testing.T) {
	s := NewMemoryStore()
	for _, k := range transientKeys {
		s.Set(k, "x")
	}
	s.Set(KeyInitialized, "1")
	s.Set(KeyStrictMode, "true")

	if err := ClearTransient(s); err != nil {
		t.Fatal(err)
	}
	for _, k := range transientKeys {
		if IsSet(s, k) {
			t.Fatalf("%s should be cleared", k)
		}
	}
	if !IsSet(s, KeyInitialized) || !IsSet(s, KeyStrictMode) {
		t.Fatal("durable keys must survive")
	}
}

func TestMemoryStore_Keys(t *testing.T) {
	s := NewMemoryStore()
	s.Set(KeySession, "abc")
	s.Set(KeyOldStep, "1.1")
	s.Set(KeyNewStep, "")
	keys, err := s.Keys()
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 || keys[0] != KeyOldStep || keys[1] != KeySession {
		t.Fatalf("keys = %v", keys)
	}
}

func TestIsTransient(t *testing.T) {
	for _, k := range transientKeys {
		if !IsTransient(k) {
			t.Errorf("%s should be transient", k)
		}
	}
	if IsTransient(KeyInitialized) || IsTransient(KeyStrictMode) {
		t.Error("durable keys are not transient")
	}
}

func TestStepMap(t *testing.T) {
	s := NewMemoryStore()
	m, err := LoadStepMap(s)
	if err != nil {
		t.Fatal(err)
	}
	if len(m) != 0 {
		t.Fatalf("got %v", m)
	}

	RecordStep(s, "1.2", "1.3")
	RecordStep(s, "1.2", "1.9") // first mapping wins
	RecordStep(s, "1.3", "1.3") // unchanged ids are not recorded
	RecordStep(s, "2.1", "")    // removed

	m, err = LoadStepMap(s)
	if err != nil {
		t.Fatal(err)
	}
	if len(m) != 2 || m["1.2"] != "1.3" {
		t.Fatalf("got %v", m)
	}
	if v, ok := m.Lookup("1.2"); !ok || v != "1.3" {
		t.Fatalf("Lookup(1.2) = %q, %v", v, ok)
	}
	if v, ok := m.Lookup("1.1"); !ok || v != "1.1" {
		t.Fatalf("Lookup(1.1) = %q, %v", v, ok)
	}
	if _, ok := m.Lookup("2.1"); ok {
		t.Fatal("2.1 was removed")
	}
}
