// Package session holds the mutable binding environment snippets execute
// against.
//
// A Session is created once at process start, owned by whoever constructs
// the server, passed by reference into every evaluator call, and destroyed
// only at process exit. It is never implicitly reset: a binding made by one
// snippet is visible to every later snippet for the life of the process.
// Nothing is persisted across restarts.
package session

import (
	"go.starlark.net/starlark"
)

// Session is a mapping from identifier to Starlark value.
//
// Not safe for concurrent use. The serve loop is strictly sequential, so the
// evaluator is the single writer; a future concurrent design must serialize
// evaluator invocations around it.
type Session struct {
	globals starlark.StringDict
}

// New creates an empty session.
func New() *Session {
	return &Session{globals: make(starlark.StringDict)}
}

// Globals exposes the underlying binding dict for the evaluator. Callers
// other than the evaluator should treat it as read-only.
func (s *Session) Globals() starlark.StringDict {
	return s.globals
}

// Get returns the value bound to name, if any.
func (s *Session) Get(name string) (starlark.Value, bool) {
	v, ok := s.globals[name]
	return v, ok
}

// Assign binds name to v directly, bypassing evaluation. Used by embedders
// that want to seed the environment before serving.
func (s *Session) Assign(name string, v starlark.Value) {
	s.globals[name] = v
}

// Len reports how many bindings the session holds.
func (s *Session) Len() int {
	return len(s.globals)
}
