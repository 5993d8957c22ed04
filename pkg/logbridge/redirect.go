package logbridge

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// ErrAlreadyInstalled is returned when output redirection is installed twice
// on the same thread.
var ErrAlreadyInstalled = errors.New("output redirection already installed")

const redirectLocalKey = "logbridge.redirect"

// Redirect funnels a thread's print output through the bridge. The previous
// output function stays reachable from scripts as os.print.
type Redirect struct {
	bridge   *Bridge
	fallback io.Writer
}

// NewRedirect returns a redirect that logs through b. Output sent to os.print
// on a thread without a previous output function goes to fallback, or to
// stderr when fallback is nil.
func NewRedirect(b *Bridge, fallback io.Writer) *Redirect {
	if fallback == nil {
		fallback = os.Stderr
	}
	return &Redirect{bridge: b, fallback: fallback}
}

// Install replaces thread.Print with the bridge's message-level output and
// binds the previous output function to os.print in env.
func (r *Redirect) Install(thread *starlark.Thread, env starlark.StringDict) error {
	if Installed(thread) {
		return ErrAlreadyInstalled
	}

	prev := thread.Print
	out := func(thread *starlark.Thread, msg string) {
		if prev != nil {
			prev(thread, msg)
			return
		}
		fmt.Fprintln(r.fallback, msg)
	}

	members := starlark.StringDict{}
	if existing, ok := env["os"].(*starlarkstruct.Module); ok {
		for k, v := range existing.Members {
			members[k] = v
		}
	}
	members["print"] = starlark.NewBuiltin("print", func(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		msg, err := formatPrint(args, kwargs)
		if err != nil {
			return nil, err
		}
		out(thread, msg)
		return starlark.None, nil
	})
	env["os"] = &starlarkstruct.Module{Name: "os", Members: members}

	thread.Print = r.bridge.Print
	thread.SetLocal(redirectLocalKey, true)
	return nil
}

// Installed reports whether thread's output already goes through a bridge.
func Installed(thread *starlark.Thread) bool {
	installed, _ := thread.Local(redirectLocalKey).(bool)
	return installed
}

// formatPrint renders arguments the way the universe print builtin does.
func formatPrint(args starlark.Tuple, kwargs []starlark.Tuple) (string, error) {
	sep := " "
	for _, kv := range kwargs {
		k, _ := starlark.AsString(kv[0])
		if k != "sep" {
			return "", fmt.Errorf("print: unexpected keyword argument %s", k)
		}
		s, ok := starlark.AsString(kv[1])
		if !ok {
			return "", fmt.Errorf("print: for parameter sep: got %s, want string", kv[1].Type())
		}
		sep = s
	}

	var b strings.Builder
	for i, v := range args {
		if i > 0 {
			b.WriteString(sep)
		}
		if s, ok := starlark.AsString(v); ok {
			b.WriteString(s)
		} else {
			b.WriteString(v.String())
		}
	}
	return b.String(), nil
}
