package session_test

import (
	"testing"

	"github.com/flowmux/river/internal/session"
)

func TestSessionManagerCreateGetDelete(t *testing.T) {
	m := session.NewSessionManager(4)

	s, err := m.Create("client-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.ID() != "client-1" {
		t.Fatalf("ID() = %q, want client-1", s.ID())
	}

	again, err := m.Create("client-1")
	if err != nil {
		t.Fatalf("Create (second): %v", err)
	}
	if again != s {
		t.Fatal("Create should return the existing session for an id already registered")
	}

	got, ok := m.Get("client-1")
	if !ok || got != s {
		t.Fatal("Get did not return the registered session")
	}

	m.Delete("client-1")
	if _, ok := m.Get("client-1"); ok {
		t.Fatal("session still present after Delete")
	}
	select {
	case <-s.Done():
	default:
		t.Fatal("Delete should cancel the session")
	}
}

func TestSessionManagerRange(t *testing.T) {
	m := session.NewSessionManager(4)
	ids := []string{"a", "b", "c"}
	for _, id := range ids {
		if _, err := m.Create(id); err != nil {
			t.Fatalf("Create(%q): %v", id, err)
		}
	}

	seen := make(map[string]bool)
	m.Range(func(s session.Session) {
		seen[s.ID()] = true
	})
	for _, id := range ids {
		if !seen[id] {
			t.Errorf("Range missed session %q", id)
		}
	}
}

func TestSessionCancelIdempotent(t *testing.T) {
	m := session.NewSessionManager(1)
	s, _ := m.Create("solo")
	s.Cancel()
	s.Cancel() // must not panic on double-close
	select {
	case <-s.Done():
	default:
		t.Fatal("Done channel should be closed after Cancel")
	}
}
