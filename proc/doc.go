// Package proc launches command trees as operating system processes.
//
// A [Cmd] is either an [Atom], one argument vector, or an [Op] joining two
// commands with an [Operator]:
//
//	a && b    run b only if a exits 0
//	a || b    run b only if a exits non-zero
//	a | b     a's stdout feeds b's stdin       (*| stderr, &| both)
//	a > f     a's stdout truncates f           (*> stderr, &> both)
//	a < f     a reads stdin from f             (*< and &< are equivalent)
//
// [Launcher.Run] connects the tree to the launcher's standard streams and
// [Launcher.Capture] collects combined stdout and stderr. Both block until
// every process in the tree has exited. Pipeline stages run concurrently.
//
// A non-zero exit status is reported as a status, not an error. Errors are
// reserved for commands that could not be started or wired.
package proc
