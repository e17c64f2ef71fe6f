package execmeta

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// scriptDialect relaxes the Starlark file dialect for emit scripts:
// top-level control flow, while loops and recursion are all legitimate in a
// code generator. Sandboxing comes from the builtin surface, not the
// grammar.
var scriptDialect = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// ErrTimeout marks an interpreter run that exceeded its per-call budget.
// Callers map it to an EXEC_TIMEOUT diagnostic.
var ErrTimeout = errors.New("exec interpreter timed out")

// DefaultTimeout bounds one interpreter call unless the session configures
// otherwise.
const DefaultTimeout = 2 * time.Second

// Runtime drives the sandboxed Starlark interpreter. The interpreter sees
// only the fixed builtin surface required by the meta-execution contract;
// no file, network or module access is granted.
type Runtime struct {
	timeout time.Duration
}

// NewRuntime creates a runtime with the given per-call timeout; zero
// selects DefaultTimeout.
func NewRuntime(timeout time.Duration) *Runtime {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runtime{timeout: timeout}
}

// Invoke runs script with the given parameter vector and returns the
// concatenated emit buffer. The script may call:
//
//	get_param(i)  -> string, index-checked
//	param_count() -> int
//	emit(s)       appends s to the output buffer
//	emit_line(s)  appends s plus a newline
//
// A run that exceeds the timeout (or the caller's context) returns
// ErrTimeout wrapped with the cancellation reason. Any other interpreter
// failure is returned verbatim; the caller must not splice anything on
// error.
func (rt *Runtime) Invoke(ctx context.Context, name, script string, params []string) (string, error) {
	var out strings.Builder

	predeclared := starlark.StringDict{
		"get_param": starlark.NewBuiltin("get_param", func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var i int
			if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &i); err != nil {
				return nil, err
			}
			if i < 0 || i >= len(params) {
				return nil, fmt.Errorf("get_param: index %d out of range (%d params)", i, len(params))
			}
			return starlark.String(params[i]), nil
		}),
		"param_count": starlark.NewBuiltin("param_count", func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 0); err != nil {
				return nil, err
			}
			return starlark.MakeInt(len(params)), nil
		}),
		"emit": starlark.NewBuiltin("emit", func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var s string
			if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &s); err != nil {
				return nil, err
			}
			out.WriteString(s)
			return starlark.None, nil
		}),
		"emit_line": starlark.NewBuiltin("emit_line", func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var s string
			if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &s); err != nil {
				return nil, err
			}
			out.WriteString(s)
			out.WriteByte('\n')
			return starlark.None, nil
		}),
	}

	thread := &starlark.Thread{Name: "execmeta:" + name}

	var timedOut atomic.Bool
	timer := time.AfterFunc(rt.timeout, func() {
		timedOut.Store(true)
		thread.Cancel("timeout")
	})
	defer timer.Stop()

	stop := context.AfterFunc(ctx, func() {
		thread.Cancel("context cancelled")
	})
	defer stop()

	_, err := starlark.ExecFileOptions(scriptDialect, thread, name+".star", script, predeclared)
	if err != nil {
		if timedOut.Load() {
			return "", fmt.Errorf("%w after %s", ErrTimeout, rt.timeout)
		}
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
		}
		return "", err
	}
	return out.String(), nil
}
