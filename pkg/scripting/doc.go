// Package scripting hosts Starlark scripts with the chassis module and the
// log bridge installed.
//
// Every execution gets a fresh thread, a run ID that is attached to all of
// its log records, and a deadline. Scripts reach the host through the
// chassis module:
//
//	chassis.log(level, message)
//	chassis.error(message) ... chassis.debug(message)
//	chassis.set_shutdown()
//
// With print redirection enabled, print() logs at message severity and the
// plain output function stays available as os.print.
//
// Files run through ExecFile, and modules pulled in with load(), are named
// "@<absolute path>" so the bridge can attribute log lines to them.
package scripting
