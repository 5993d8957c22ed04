// Package logbridge routes log output from embedded Starlark scripts into
// zerolog, charging every line to the script location that produced it.
//
// Scripts see a set of entry points, usually exposed as a module:
//
//	chassis.log("warning", "disk almost full")
//	chassis.info("loaded " + str(n) + " backends")
//
// Each call walks the thread's call stack (see Walker) to find the nearest
// frame whose chunk name is an absolute path or carries the '@' file marker,
// shortens that path relative to the configured base directory, and emits
// one record whose message is "(<path>:<line>) <text>".
//
// Severities map onto zerolog levels as follows:
//
//	error    -> fatal (emitted with WithLevel, never exits)
//	critical -> error
//	warning  -> warn
//	message  -> info
//	info     -> debug
//	debug    -> trace
//
// Redirect makes the bridge the thread's print function, so plain print()
// output gets the same treatment, and keeps the previous output function
// reachable as os.print.
package logbridge
