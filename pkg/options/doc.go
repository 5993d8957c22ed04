// Package options resolves typed configuration options from layered sources.
//
// A host declares its options once as a Table of descriptors, each bound to a
// caller-owned Value cell. Explicit layers such as command-line flags write
// into the cells first; Resolve then overlays a keyfile group, filling only
// the gaps.
//
// # Precedence
//
// String and StringList options that are already set are never overwritten by
// the file. Boolean, Integer and Double options have no "already set" test and
// always take the file value when the key is present:
//
//	var (
//	    baseDir = &options.Value[string]{}
//	    verbose = &options.Value[bool]{}
//	)
//	table := options.Table{
//	    options.String("basedir", baseDir, "application base directory"),
//	    options.Bool("verbose", verbose, "verbose output"),
//	    options.Sentinel,
//	}
//
//	kf, err := options.LoadKeyFile("/etc/chassis.ini")
//	if err != nil {
//	    return err
//	}
//	status, err := options.Resolve(kf, "chassis", table, options.WithLogger(logger))
//
// # Keyfile format
//
// Groups are [name] sections holding key = value pairs. Lists use ';' as the
// separator, booleans are true/false/1/0, integers are base 10. Escape
// sequences \s \n \t \r \\ and \; are decoded in string values.
//
// A missing source, group or key is absence, not failure. A malformed value
// yields StatusPartialFailure together with a *ParseError for every offending
// option; the caller decides whether that is fatal.
package options
