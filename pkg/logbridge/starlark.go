package logbridge

import (
	"go.starlark.net/starlark"
)

// ThreadFrames exposes the call stack of a running Starlark thread. It must
// only be used while a builtin called from that thread is executing.
func ThreadFrames(thread *starlark.Thread) Frames {
	if thread == nil {
		return FrameList(nil)
	}
	return threadFrames{thread}
}

type threadFrames struct {
	thread *starlark.Thread
}

func (t threadFrames) Depth() int {
	return t.thread.CallStackDepth()
}

func (t threadFrames) Frame(depth int) Frame {
	fr := t.thread.CallFrame(depth)
	line := int(fr.Pos.Line)
	if line <= 0 {
		line = -1
	}
	return Frame{Source: fr.Pos.Filename(), Line: line}
}

// Builtins returns the script entry points: log(level, message) plus one
// function per severity taking only the message. They never fail.
func (b *Bridge) Builtins() starlark.StringDict {
	dict := starlark.StringDict{
		"log": starlark.NewBuiltin("log", b.builtinLog),
	}
	for _, s := range Severities {
		dict[s.String()] = starlark.NewBuiltin(s.String(), b.severityBuiltin(s))
	}
	return dict
}

// Print is a starlark.Thread output function that logs at message severity.
func (b *Bridge) Print(thread *starlark.Thread, msg string) {
	b.Log(ThreadFrames(thread), SeverityMessage, msg)
}

func (b *Bridge) builtinLog(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	level := argAt(args, kwargs, 0, "level")
	msg := argAt(args, kwargs, 1, "message")

	s := SeverityMessage
	if str, ok := starlark.AsString(level); ok {
		s = ParseSeverity(str)
	}
	b.Log(ThreadFrames(thread), s, messageText(msg))
	return starlark.None, nil
}

func (b *Bridge) severityBuiltin(s Severity) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		b.Log(ThreadFrames(thread), s, messageText(argAt(args, kwargs, 0, "message")))
		return starlark.None, nil
	}
}

// argAt returns the positional argument i, else the keyword argument name.
// Extra arguments are ignored.
func argAt(args starlark.Tuple, kwargs []starlark.Tuple, i int, name string) starlark.Value {
	if i < len(args) {
		return args[i]
	}
	for _, kv := range kwargs {
		if k, ok := kv[0].(starlark.String); ok && string(k) == name {
			return kv[1]
		}
	}
	return nil
}

func messageText(v starlark.Value) string {
	switch v := v.(type) {
	case nil, starlark.NoneType:
		return NilMessage
	case starlark.String:
		return string(v)
	default:
		return v.String()
	}
}
