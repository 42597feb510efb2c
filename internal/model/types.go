package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"syscall"
	"time"
)

// Block is one fenced code block whose opening fence carries the shell
// language tag. Blocks are the unit of execution: each one becomes a
// single child shell process at run time.
type Block struct {
	// Index is the zero-based position of the block within its source
	// document, in order of appearance. The order is load-bearing:
	// documentation commands routinely depend on side effects (files
	// created, servers started) of the commands before them, so Index
	// also fixes execution order. Narrowing a run to a sub-range never
	// renumbers the surviving blocks.
	Index int `json:"index"`

	// Line is the 1-based line number of the block's opening fence in
	// the source document. Used only for diagnostics.
	Line int `json:"line"`

	// Text is the block body exactly as written between the fences:
	// interior lines joined with newlines, blank lines and whitespace
	// preserved, nothing trimmed. It is handed to the shell verbatim
	// unless prompt stripping is requested at run time.
	Text string `json:"text"`
}

// FirstLine returns the first line of the block body, which serves as
// the block's one-line summary in listings and verbose logs.
func (b Block) FirstLine() string {
	if i := strings.IndexByte(b.Text, '\n'); i >= 0 {
		return b.Text[:i]
	}
	return b.Text
}

// LineCount returns the number of lines in the block body. An empty
// body still counts as one line, mirroring how the block occupies at
// least one launchable command.
func (b Block) LineCount() int {
	return strings.Count(b.Text, "\n") + 1
}

// BlockStatus represents the outcome category of executing one block.
//
// The distinction between "failed" and "signaled" is deliberate: a
// command that exits non-zero and a command killed by a signal are
// different failure kinds and map to different process exit statuses.
type BlockStatus string

const (
	// StatusPassed indicates the command exited with status zero.
	StatusPassed BlockStatus = "passed"

	// StatusFailed indicates the command ran to completion but exited
	// with a non-zero status.
	StatusFailed BlockStatus = "failed"

	// StatusSignaled indicates the command was terminated by a signal
	// rather than exiting normally.
	StatusSignaled BlockStatus = "signaled"

	// StatusLaunchError indicates the command could not be started at
	// all, e.g. the shell interpreter is missing or the working
	// directory does not exist.
	StatusLaunchError BlockStatus = "launch-error"

	// StatusSkipped indicates the block was excluded by a skip pattern
	// and never launched.
	StatusSkipped BlockStatus = "skipped"
)

// String returns the string representation of the status, satisfying
// fmt.Stringer for CLI output and logging.
func (s BlockStatus) String() string {
	return string(s)
}

// IsValid checks whether the BlockStatus value is one of the
// predefined states.
func (s BlockStatus) IsValid() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusSignaled, StatusLaunchError, StatusSkipped:
		return true
	default:
		return false
	}
}

// Failure reports whether the status halts a run. Skipped blocks are
// not failures; everything other than a pass or a skip is.
func (s BlockStatus) Failure() bool {
	switch s {
	case StatusFailed, StatusSignaled, StatusLaunchError:
		return true
	default:
		return false
	}
}

// BlockResult records the outcome of executing (or skipping) a single
// block.
type BlockResult struct {
	// Block is the block this result belongs to.
	Block Block `json:"block"`

	// Status is the outcome category.
	Status BlockStatus `json:"status"`

	// ExitCode is the command's exit status. Zero means success. It is
	// -1 when the command was signaled or never launched, matching the
	// os/exec convention.
	ExitCode int `json:"exitCode"`

	// Signal is the termination signal when Status is StatusSignaled,
	// zero otherwise. syscall.Signal carries both the raw number and a
	// human-readable name via String().
	Signal syscall.Signal `json:"signal,omitempty"`

	// Err holds the launch failure cause when Status is
	// StatusLaunchError. It is nil for every other status: a non-zero
	// exit is an expected, recordable outcome, not a Go error. Go
	// errors do not marshal usefully, so MarshalJSON emits the cause
	// as an "error" string instead.
	Err error `json:"-"`

	// Duration is how long the command ran. Zero for skipped blocks.
	// Rendered by MarshalJSON as a duration string.
	Duration time.Duration `json:"-"`
}

// MarshalJSON renders the result with the fields the struct tags
// cannot express: the launch-failure cause as a plain string and the
// duration in time.Duration notation, so machine consumers of a
// --json report see why a block failed and how long it took.
func (r BlockResult) MarshalJSON() ([]byte, error) {
	type alias BlockResult
	out := struct {
		alias
		Error    string `json:"error,omitempty"`
		Duration string `json:"duration"`
	}{
		alias:    alias(r),
		Duration: r.Duration.String(),
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

// Describe returns a one-line human explanation of the result, used in
// failure messages and verbose logs.
func (r BlockResult) Describe() string {
	switch r.Status {
	case StatusPassed:
		return "succeeded"
	case StatusFailed:
		return fmt.Sprintf("exited with status %d", r.ExitCode)
	case StatusSignaled:
		return fmt.Sprintf("terminated by signal %s", r.Signal)
	case StatusLaunchError:
		return fmt.Sprintf("could not be started: %v", r.Err)
	case StatusSkipped:
		return "skipped"
	default:
		return string(r.Status)
	}
}

// Report aggregates one ordered run of a document's blocks.
//
// Execution is first-failure-wins: Results holds one entry per block
// that was considered before the run ended, in block order. Blocks
// after the first failure never execute and therefore have no entry.
type Report struct {
	// RunID is a unique identifier for this run, for correlating
	// verbose logs and JSON reports.
	RunID string `json:"runId"`

	// Source is the path of the markdown document that produced the
	// blocks. Diagnostic only.
	Source string `json:"source"`

	// Results holds the per-block outcomes in block order.
	Results []BlockResult `json:"results"`

	// Started is when the run began.
	Started time.Time `json:"started"`

	// Duration is the wall-clock time of the whole run, including
	// configured inter-command delays. Rendered by MarshalJSON as a
	// duration string.
	Duration time.Duration `json:"-"`
}

// MarshalJSON includes the run's wall-clock duration in
// time.Duration notation alongside the tagged fields.
func (r *Report) MarshalJSON() ([]byte, error) {
	type alias Report
	return json.Marshal(struct {
		*alias
		Duration string `json:"duration"`
	}{
		alias:    (*alias)(r),
		Duration: r.Duration.String(),
	})
}

// Failed returns the first failing result, or nil when every block
// passed or was skipped. Because execution halts at the first failure,
// a non-nil return is always the last entry in Results.
func (r *Report) Failed() *BlockResult {
	for i := range r.Results {
		if r.Results[i].Status.Failure() {
			return &r.Results[i]
		}
	}
	return nil
}

// OK reports whether the run completed without any failure.
func (r *Report) OK() bool {
	return r.Failed() == nil
}

// Ran returns how many blocks were actually launched.
func (r *Report) Ran() int {
	n := 0
	for _, res := range r.Results {
		if res.Status != StatusSkipped {
			n++
		}
	}
	return n
}

// Skipped returns how many blocks were excluded by the skip pattern.
func (r *Report) Skipped() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == StatusSkipped {
			n++
		}
	}
	return n
}

// ExitStatus translates the aggregate outcome into a process exit
// status: 0 on success, the failing command's own exit code on a
// non-zero exit, 128 plus the signal number for signaled termination
// (the usual shell convention), and ExitLaunchFailure when a command
// could not be started.
func (r *Report) ExitStatus() int {
	failed := r.Failed()
	if failed == nil {
		return int(ExitSuccess)
	}
	switch failed.Status {
	case StatusSignaled:
		return 128 + int(failed.Signal)
	case StatusLaunchError:
		return int(ExitLaunchFailure)
	default:
		return failed.ExitCode
	}
}

// ExitCode defines the CLI exit codes that mdrun itself produces.
// Command failures are reported with the failing command's own exit
// status instead, so scripts and CI systems see exactly what a manual
// run of the documented commands would have produced.
type ExitCode int

const (
	// ExitSuccess indicates every block ran and exited zero.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error: bad flags, an
	// unreadable document, a malformed config file.
	ExitGeneralError ExitCode = 1

	// ExitMalformedDocument indicates the markdown document could not
	// be parsed, e.g. a code fence is never closed. Nothing executes.
	ExitMalformedDocument ExitCode = 2

	// ExitMarkerNotFound indicates a --from or --until marker matched
	// no block in the document.
	ExitMarkerNotFound ExitCode = 3

	// ExitLaunchFailure indicates a command could not be started at
	// all, as opposed to running and failing.
	ExitLaunchFailure ExitCode = 4
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
