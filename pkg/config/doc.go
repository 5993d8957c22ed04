// Package config resolves the chassis process configuration.
//
// Every option is an options.Value cell on Options. Three layers write the
// cells, highest precedence first:
//
//  1. command-line flags registered by BindFlags
//  2. the [chassis] group of the keyfile named by --defaults-file
//  3. built-in defaults
//
// Load runs the keyfile pass through options.Resolve, applies defaults and
// returns a validated Settings snapshot with absolute paths:
//
//	opts := config.NewOptions()
//	opts.BindFlags(cmd.Flags())
//	// ... flags are parsed ...
//	res, err := opts.Load(ctx, config.WithLogger(log.Logger))
//	if err != nil {
//	    return err
//	}
//	if res.Status == options.StatusPartialFailure {
//	    // res.ResolveErr names every malformed option
//	}
//
// A keyfile looks like:
//
//	[chassis]
//	basedir = /srv/app
//	script = init.star;jobs/nightly.star
//	log-level = debug
//	stack-depth = 12
package config
