// Package runner executes shell command blocks in document order.
//
// The Runner is the command sequencer at the heart of mdrun: it takes
// the blocks the markdown extractor produced and launches each one as
// a single shell command, in strict index order, halting at the first
// failure. That mirrors a human following the documentation by hand —
// a broken step stops the reader, so it stops the run.
//
// Output handling is a hard contract, not an optimization: each
// child's stdout and stderr are connected directly to the configured
// streams (the process's own by default) and are never buffered into
// memory, so long-running or interactive example commands behave
// identically to typing them into a terminal, and redirecting the
// whole mdrun invocation captures the same transcript a manual
// session would produce.
//
// The package also provides the supporting operations that act on
// block sequences without executing them: narrowing a run to a marker
// range (Range) and rendering blocks into a standalone shell script
// (Script).
package runner
