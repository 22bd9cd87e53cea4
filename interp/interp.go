// Package interp runs one snippet of source text against a session and
// reports a classified outcome.
//
// The snippet dialect is Starlark, a Python dialect, with the REPL-oriented
// language options enabled (set, while, top-level control flow, global
// reassignment, recursion) so imperative snippets behave the way a Python
// REPL user expects.
//
// A snippet takes exactly one of two paths:
//
//   - Expression path: the snippet parses as a single expression and is
//     evaluated for a value. A snippet that parses as an expression is never
//     also executed as statements, so side effects run exactly once.
//   - Statement path: the snippet does not parse as an expression and is
//     executed as a sequence of statements. Bindings it creates or updates
//     land in the session and are visible to later calls. No value is
//     produced.
//
// Run never propagates a fault: syntax errors on the statement path and
// runtime errors on either path are captured into the Result as a failure
// with a diagnostic trace.
package interp

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"pyrepl/session"
)

// inputFilename labels snippet positions in diagnostic traces.
const inputFilename = "<input>"

// Result is the structured outcome of one evaluation call.
//
// Result (the field) is present only when the snippet was evaluated as an
// expression and produced a non-None value; it is absent for statement
// execution and for None-producing expressions. Stdout and Stderr are always
// present, empty or not.
type Result struct {
	Success bool    `json:"success"`
	Stdout  string  `json:"stdout"`
	Stderr  string  `json:"stderr"`
	Result  *string `json:"result,omitempty"`
}

// Evaluator executes snippets. It is stateless apart from the parse options;
// all mutable state lives in the Session passed to Run.
type Evaluator struct {
	opts *syntax.FileOptions
}

// New creates an evaluator with the REPL language options.
func New() *Evaluator {
	return &Evaluator{
		opts: &syntax.FileOptions{
			Set:             true,
			While:           true,
			TopLevelControl: true,
			GlobalReassign:  true,
			Recursion:       true,
		},
	}
}

// Run executes one snippet against sess and returns its outcome. The
// snippet's print output goes to a fresh call-scoped buffer via the thread's
// print hook — a per-call capture handle, not a process-wide stream
// redirection — so there is nothing to restore on the way out.
func (ev *Evaluator) Run(sess *session.Session, code string) (res Result) {
	var stdout, stderr bytes.Buffer

	// Submitted code must never take the process down, not even through
	// an interpreter bug.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(&stderr, "panic: %v\n", r)
			res = Result{Stdout: stdout.String(), Stderr: stderr.String()}
		}
	}()

	thread := &starlark.Thread{
		Name: "repl",
		Print: func(_ *starlark.Thread, msg string) {
			fmt.Fprintln(&stdout, msg)
		},
	}

	// Path selection happens once, on parse-ability as an expression.
	if expr, err := ev.opts.ParseExpr(inputFilename, code, 0); err == nil {
		v, err := starlark.EvalExprOptions(ev.opts, thread, expr, sess.Globals())
		if err != nil {
			// A runtime fault inside the expression path is a
			// failure outcome, not a retry as statements.
			appendTrace(&stderr, err)
			return Result{Stdout: stdout.String(), Stderr: stderr.String()}
		}
		res = Result{Success: true, Stdout: stdout.String(), Stderr: stderr.String()}
		if v != starlark.None {
			repr := v.String()
			res.Result = &repr
		}
		return res
	}

	f, err := ev.opts.Parse(inputFilename, code, 0)
	if err != nil {
		appendTrace(&stderr, err)
		return Result{Stdout: stdout.String(), Stderr: stderr.String()}
	}
	// ExecREPLChunk treats the session dict as the module's globals, so
	// reassignment of an existing binding (x = x + 1) resolves against the
	// previous value and new bindings land in the session directly.
	if err := starlark.ExecREPLChunk(f, thread, sess.Globals()); err != nil {
		appendTrace(&stderr, err)
		return Result{Stdout: stdout.String(), Stderr: stderr.String()}
	}
	return Result{Success: true, Stdout: stdout.String(), Stderr: stderr.String()}
}

// appendTrace formats err into the captured stderr text. Starlark evaluation
// errors carry a full backtrace of the snippet; anything else (syntax
// errors, resolver errors) renders as its message.
func appendTrace(stderr *bytes.Buffer, err error) {
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		stderr.WriteString(evalErr.Backtrace())
	} else {
		stderr.WriteString(err.Error())
	}
	if !strings.HasSuffix(stderr.String(), "\n") {
		stderr.WriteByte('\n')
	}
}
