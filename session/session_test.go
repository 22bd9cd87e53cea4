package session

import (
	"testing"

	"go.starlark.net/starlark"
)

func TestLifecycle(t *testing.T) {
	s := New()
	if s.Len() != 0 {
		t.Fatalf("fresh session must be empty, has %d bindings", s.Len())
	}

	s.Assign("x", starlark.MakeInt(5))
	if s.Len() != 1 {
		t.Errorf("expected 1 binding, got %d", s.Len())
	}
	v, ok := s.Get("x")
	if !ok {
		t.Fatal("binding x not found")
	}
	if v.String() != "5" {
		t.Errorf("binding mismatch: got %s, want 5", v.String())
	}

	if _, ok := s.Get("missing"); ok {
		t.Error("unbound name must not resolve")
	}
}

// Two sessions never share state; the process-wide session behavior comes
// from passing the same Session into every call, not from globals.
func TestSessionsAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.Assign("x", starlark.MakeInt(1))
	if _, ok := b.Get("x"); ok {
		t.Error("binding leaked between sessions")
	}
}
