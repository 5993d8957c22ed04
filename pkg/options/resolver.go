package options

import (
	"errors"

	"github.com/rs/zerolog"
)

// Status is the overall result of a resolution pass.
type Status int

const (
	// StatusOK means every descriptor parsed cleanly or was absent.
	StatusOK Status = iota

	// StatusPartialFailure means at least one present value was malformed.
	// The remaining descriptors were still resolved.
	StatusPartialFailure

	// StatusNoSource means there was no source to resolve from.
	StatusNoSource
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusPartialFailure:
		return "partial_failure"
	case StatusNoSource:
		return "no_source"
	default:
		return "unknown"
	}
}

// Outcome labels what happened to a single descriptor.
type Outcome string

const (
	OutcomeApplied         Outcome = "applied"
	OutcomeSkippedExplicit Outcome = "skipped_explicit"
	OutcomeAbsent          Outcome = "absent"
	OutcomeInvalid         Outcome = "invalid"
)

// Observer receives one outcome per resolved descriptor.
type Observer interface {
	ObserveOption(group, option string, outcome Outcome)
}

type resolveConfig struct {
	logger   zerolog.Logger
	observer Observer
}

// ResolveOption customizes Resolve.
type ResolveOption func(*resolveConfig)

// WithLogger sets the logger used for malformed-value diagnostics.
func WithLogger(logger zerolog.Logger) ResolveOption {
	return func(c *resolveConfig) {
		c.logger = logger
	}
}

// WithObserver reports per-descriptor outcomes to o.
func WithObserver(o Observer) ResolveOption {
	return func(c *resolveConfig) {
		c.observer = o
	}
}

// Resolve fills the bindings of table from the named group of src.
//
// String and StringList bindings that are already set are left alone, so an
// explicit layer always wins over the file. Boolean, Integer and Double
// bindings are overwritten whenever the key is present. A missing source,
// group or key is not an error. A malformed value is logged, reported in the
// returned error and turns the status into StatusPartialFailure; resolution
// continues with the next descriptor.
func Resolve(src Source, group string, table Table, opts ...ResolveOption) (Status, error) {
	cfg := resolveConfig{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	if absent(src) {
		return StatusNoSource, nil
	}
	g, ok := src.Group(group)
	if !ok {
		cfg.logger.Debug().Str("group", group).Msg("Option group not present, nothing to resolve")
		return StatusOK, nil
	}

	status := StatusOK
	var errs []error
	table.Each(func(d *Descriptor) {
		if d.isNil() || d.populated() {
			cfg.observe(group, d.Name, OutcomeSkippedExplicit)
			return
		}

		raw, err := g.Lookup(d.Name)
		if err == nil {
			err = d.Assign(raw)
		}
		switch {
		case err == nil:
			cfg.observe(group, d.Name, OutcomeApplied)
		case errors.Is(err, ErrKeyNotFound):
			cfg.observe(group, d.Name, OutcomeAbsent)
		default:
			perr := &ParseError{Group: group, Option: d.Name, Kind: d.Kind, Raw: raw, Err: err}
			cfg.logger.Warn().
				Str("group", group).
				Str("option", d.Name).
				Str("kind", d.Kind.String()).
				Str("value", raw).
				Err(err).
				Msg(perr.Error())
			cfg.observe(group, d.Name, OutcomeInvalid)
			errs = append(errs, perr)
			status = StatusPartialFailure
		}
	})

	return status, errors.Join(errs...)
}

func (c *resolveConfig) observe(group, option string, outcome Outcome) {
	if c.observer != nil {
		c.observer.ObserveOption(group, option, outcome)
	}
}

// absent reports whether src is missing, including a nil *KeyFile held in
// the interface.
func absent(src Source) bool {
	if src == nil {
		return true
	}
	kf, ok := src.(*KeyFile)
	return ok && kf == nil
}
