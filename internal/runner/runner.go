package runner

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"regexp"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/mmr-tortoise/mdrun/internal/model"
)

// DefaultShell is the interpreter used when Options.Shell is empty.
// POSIX sh is the least surprising default for documentation commands.
const DefaultShell = "/bin/sh"

// Options configures one run of a block sequence. The zero value runs
// blocks with /bin/sh in the current directory, no delay, and the
// process's own standard streams.
type Options struct {
	// Dir is the working directory for every launched command. Empty
	// means the process's current directory. The directory must exist;
	// a vanished directory surfaces as a launch failure on the first
	// block that tries to start in it.
	Dir string

	// Delay is the pause inserted between consecutive launched
	// commands. It is applied after one command finishes and before the
	// next one starts — never before the first command or after the
	// last — so documentation steps that need external effects to
	// settle (a server starting, a file appearing) get their breathing
	// room without padding the ends of the run.
	Delay time.Duration

	// Shell is the interpreter the block text is handed to, as
	// <shell> -c <text>. Defaults to DefaultShell.
	Shell string

	// Env holds extra KEY=VALUE pairs appended to the inherited
	// environment of every launched command. Later entries win on
	// duplicate keys, following os/exec semantics.
	Env []string

	// StripPrompts removes a leading "$ " transcript prompt from each
	// line of a block before launching it. The block itself is never
	// modified; the transform applies to the launched command line
	// only.
	StripPrompts bool

	// Skip excludes matching blocks from execution: a block whose text
	// matches is recorded as skipped and never launched. Nil means
	// nothing is skipped.
	Skip *regexp.Regexp

	// Stdout, Stderr, and Stdin are the streams wired to every
	// launched command. Nil fields default to the process's own
	// streams. Output passes through live; the runner never captures
	// it.
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader

	// OnStart, when non-nil, is called immediately before each block
	// is launched. The CLI uses it to print the transcript header for
	// the command about to run. It is not called for skipped blocks.
	OnStart func(block model.Block)
}

// Runner executes block sequences according to a fixed set of
// Options. A Runner is stateless between runs; the same Runner may
// execute any number of sequences.
type Runner struct {
	opts Options
}

// New creates a Runner, filling in defaults for unset options.
func New(opts Options) *Runner {
	if opts.Shell == "" {
		opts.Shell = DefaultShell
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	return &Runner{opts: opts}
}

// Run executes the blocks in strict index order and returns the
// aggregate report. Execution is first-failure-wins: a non-zero exit,
// a signaled termination, or a failure to launch ends the run
// immediately, and no later block executes. An empty sequence is
// trivially a success.
//
// Run is deliberately sequential and uncancellable: commands
// routinely depend on the side effects of the commands before them,
// so strict ordering is part of the contract, and there is no
// per-command timeout — a hung command hangs the run, exactly as it
// would hang a human. A signal to the whole process is the only abort
// path, which is why Run takes no context.
//
// The caller fills in Report.Source; the runner only knows blocks.
func (r *Runner) Run(blocks []model.Block) *model.Report {
	report := &model.Report{
		RunID:   uuid.NewString(),
		Started: time.Now(),
	}

	launched := 0
	for _, block := range blocks {
		if r.opts.Skip != nil && r.opts.Skip.MatchString(block.Text) {
			report.Results = append(report.Results, model.BlockResult{
				Block:  block,
				Status: model.StatusSkipped,
			})
			continue
		}

		// The delay spaces out launched commands only. Skipped blocks
		// consume no delay, and nothing sleeps before the first launch
		// or after the last.
		if launched > 0 && r.opts.Delay > 0 {
			time.Sleep(r.opts.Delay)
		}

		if r.opts.OnStart != nil {
			r.opts.OnStart(block)
		}

		result := r.launch(block)
		launched++
		report.Results = append(report.Results, result)

		if result.Status.Failure() {
			break
		}
	}

	report.Duration = time.Since(report.Started)
	return report
}

// launch runs one block as a single shell command and waits for it to
// terminate. The child owns the configured streams for its lifetime;
// the runner owns the child and never detaches it.
func (r *Runner) launch(block model.Block) model.BlockResult {
	text := block.Text
	if r.opts.StripPrompts {
		text = StripPrompts(text)
	}

	// One -c invocation per block: multi-line text executes as a shell
	// script body, so heredocs, loops, and line continuations behave
	// exactly as the block's author wrote them. An empty or
	// whitespace-only block still launches a no-op shell, because that
	// is what a literal shell session would do.
	// #nosec G204 — executing document commands verbatim is the
	// product, not an injection.
	cmd := exec.Command(r.opts.Shell, "-c", text)
	cmd.Dir = r.opts.Dir
	cmd.Stdout = r.opts.Stdout
	cmd.Stderr = r.opts.Stderr
	cmd.Stdin = r.opts.Stdin
	if len(r.opts.Env) > 0 {
		cmd.Env = append(os.Environ(), r.opts.Env...)
	}

	started := time.Now()
	if err := cmd.Start(); err != nil {
		// The command never ran: missing interpreter, bad working
		// directory. Distinct from a command that ran and failed.
		return model.BlockResult{
			Block:    block,
			Status:   model.StatusLaunchError,
			ExitCode: -1,
			Err:      err,
			Duration: time.Since(started),
		}
	}

	err := cmd.Wait()
	result := model.BlockResult{
		Block:    block,
		Status:   model.StatusPassed,
		Duration: time.Since(started),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
				// Killed by a signal: a different failure kind than a
				// non-zero exit, reported as such.
				result.Status = model.StatusSignaled
				result.ExitCode = -1
				result.Signal = ws.Signal()
			} else {
				result.Status = model.StatusFailed
				result.ExitCode = exitErr.ExitCode()
			}
		} else {
			// Wait itself failed; the child's fate is unknown. Treat it
			// as a launch-class failure so the run halts with a cause.
			result.Status = model.StatusLaunchError
			result.ExitCode = -1
			result.Err = err
		}
	}

	return result
}
