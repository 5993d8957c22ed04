package logbridge

import (
	"github.com/rs/zerolog"
)

// NilMessage stands in for a missing message argument.
const NilMessage = "nil"

// Event is one attributed log line. It is emitted as soon as it is built.
type Event struct {
	Severity Severity
	Text     string
	Path     string
	Line     int
	Fallback bool
}

// Observer is notified after every emitted event.
type Observer interface {
	ObserveLogRecord(severity string, fallback bool)
}

// Bridge forwards script log calls to a zerolog logger with the script
// location prepended. Its methods are safe for concurrent use.
type Bridge struct {
	logger   zerolog.Logger
	walker   Walker
	observer Observer
}

// Option customizes a Bridge.
type Option func(*Bridge)

// WithWalker sets the walker used for attribution.
func WithWalker(w Walker) Option {
	return func(b *Bridge) {
		b.walker = w
	}
}

// WithObserver reports every emitted event to o.
func WithObserver(o Observer) Option {
	return func(b *Bridge) {
		b.observer = o
	}
}

// New creates a bridge that writes to logger.
func New(logger zerolog.Logger, opts ...Option) *Bridge {
	b := &Bridge{
		logger: logger,
		walker: NewWalker("", DefaultMaxDepth),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Walker returns the walker used for attribution.
func (b *Bridge) Walker() Walker {
	return b.walker
}

// WithField returns a bridge whose records carry an extra string field.
func (b *Bridge) WithField(key, value string) *Bridge {
	cp := *b
	cp.logger = b.logger.With().Str(key, value).Logger()
	return &cp
}

// Log attributes and emits a single line at severity s.
func (b *Bridge) Log(frames Frames, s Severity, text string) Event {
	level := s.Level()
	at := b.walker.Attribute(frames)
	ev := Event{
		Severity: s,
		Text:     text,
		Path:     at.Path,
		Line:     at.Line,
		Fallback: at.Fallback,
	}
	b.emit(level, ev)
	return ev
}

func (b *Bridge) emit(level zerolog.Level, ev Event) {
	b.logger.WithLevel(level).
		Str("severity", ev.Severity.String()).
		Str("source", ev.Path).
		Int("line", ev.Line).
		Bool("attribution_fallback", ev.Fallback).
		Msgf("(%s:%d) %s", ev.Path, ev.Line, ev.Text)

	if b.observer != nil {
		b.observer.ObserveLogRecord(ev.Severity.String(), ev.Fallback)
	}
}
