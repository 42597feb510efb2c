// Package cli — run.go implements the "mdrun run" command.
//
// The run command is the primary user-facing operation. It drives the
// full pipeline for each target document: load the markdown, read its
// frontmatter, extract the shell blocks, narrow them to the requested
// range, and hand them to the runner in document order.
//
// Orchestration steps:
//  1. Load the project config file, if one exists
//  2. Resolve the target documents (arguments, config, or README.md)
//  3. Per document: load, parse frontmatter, extract blocks
//  4. Apply --from/--until range narrowing
//  5. Merge option layers (defaults < config < frontmatter < flags)
//  6. Execute the blocks and report the outcome
//
// Multiple documents run in order; the first failing document halts
// the invocation and its aggregate becomes the process exit status.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/mdrun/internal/config"
	"github.com/mmr-tortoise/mdrun/internal/markdown"
	"github.com/mmr-tortoise/mdrun/internal/model"
	"github.com/mmr-tortoise/mdrun/internal/runner"
)

// DefaultDocument is the markdown file processed when neither the
// command line nor the project config names one.
const DefaultDocument = "README.md"

// runFlags holds the flag values for the run command.
// These are bound to cobra flags in NewRunCommand.
type runFlags struct {
	dir          string   // --dir: working directory for every command
	delay        string   // --delay: pause between commands (duration)
	shell        string   // --shell: interpreter for block text
	env          []string // --env: extra KEY=VALUE pairs (repeatable)
	stripPrompts bool     // --strip-prompts: remove "$ " transcript prompts
	from         string   // --from: first block marker line
	until        string   // --until: last block marker line
	skip         string   // --skip: regex of blocks to skip
	recursive    bool     // --recursive: walk subdirectories for documents

	// stripPromptsSet records whether --strip-prompts was given at
	// all, so an untouched flag does not shadow a config or
	// frontmatter value during the option merge.
	stripPromptsSet bool
}

// Transcript colors. fatih/color silences itself on non-TTY output,
// so a redirected run stays byte-identical to a manual session.
var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	passColor    = color.New(color.FgGreen)
	failColor    = color.New(color.FgRed)
	skippedColor = color.New(color.FgYellow)
)

// NewRunCommand creates the "run" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewRunCommand() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run [file...]",
		Short: "Execute the shell blocks of one or more markdown documents",
		Long: `Execute the shell command blocks of the given markdown documents,
in document order, stopping at the first failure.

With no arguments the documents come from the project config file,
or default to README.md. Each command's stdout and stderr stream
through live, and the process exit status reproduces the failing
command's own status.

Examples:
  mdrun run
  mdrun run docs/setup.md docs/deploy.md
  mdrun run --delay 2s --dir ./demo
  mdrun run --from "make build" --until "make test"
  mdrun run --recursive`,

		RunE: func(cmd *cobra.Command, args []string) error {
			// Changed() distinguishes "--strip-prompts not given" from
			// an explicit value; only given flags join the merge.
			flags.stripPromptsSet = cmd.Flags().Changed("strip-prompts")
			return runRun(args, flags)
		},
	}

	cmd.Flags().StringVar(&flags.dir, "dir", "", "Working directory for every command (default: current directory)")
	cmd.Flags().StringVar(&flags.delay, "delay", "", "Delay between commands, e.g. 2s or 500ms (default: none)")
	cmd.Flags().StringVar(&flags.shell, "shell", "", "Shell to run blocks with (default: /bin/sh)")
	cmd.Flags().StringArrayVar(&flags.env, "env", nil, "Extra KEY=VALUE environment for every command (repeatable)")
	cmd.Flags().BoolVar(&flags.stripPrompts, "strip-prompts", false, "Strip leading \"$ \" prompts from block lines")
	cmd.Flags().StringVar(&flags.from, "from", "", "Start at the first block containing this exact line")
	cmd.Flags().StringVar(&flags.until, "until", "", "Stop after the first block containing this exact line")
	cmd.Flags().StringVar(&flags.skip, "skip", "", "Skip blocks matching this regular expression")
	cmd.Flags().BoolVarP(&flags.recursive, "recursive", "r", false, "Walk subdirectories and run every matching document")

	return cmd
}

// runRun is the main orchestration function for the run command.
func runRun(args []string, flags *runFlags) error {
	cfg, err := loadProjectConfig()
	if err != nil {
		return err
	}

	targets, recursive, err := resolveTargets(args, cfg, flags.recursive)
	if err != nil {
		return err
	}
	VerboseLog("Running %d document(s)", len(targets))

	for _, path := range targets {
		if err := runDocument(path, cfg, flags, recursive); err != nil {
			return err
		}
	}
	return nil
}

// runDocument executes one markdown document end to end.
func runDocument(path string, cfg *config.File, flags *runFlags, recursive bool) error {
	src, err := markdown.Load(path)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("cannot load %s", path), err)
	}

	meta, err := markdown.ParseMeta(src)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "invalid frontmatter", err)
	}

	blocks, err := extractBlocks(src)
	if err != nil {
		return err
	}
	VerboseLog("%s: %d shell block(s)", path, len(blocks))

	blocks, err = applyRange(blocks, flags.from, flags.until)
	if err != nil {
		return err
	}

	opts, err := documentOptions(path, cfg, meta, flags, recursive)
	if err != nil {
		return err
	}

	if !IsJSONOutput() {
		opts.OnStart = printBlockHeader
	}

	report := runner.New(opts).Run(blocks)
	report.Source = path
	VerboseLog("Run %s finished in %s", report.RunID, report.Duration)

	printRunReport(report)

	if failed := report.Failed(); failed != nil {
		// The per-block detail was already printed by printRunReport;
		// the error only needs to identify the stopping point and carry
		// the right exit code.
		return &model.CLIError{
			Code:    model.ExitCode(report.ExitStatus()),
			Message: fmt.Sprintf("%s: run stopped at block %d", path, failed.Block.Index),
		}
	}
	return nil
}

// extractBlocks wraps extraction with the CLI's error translation:
// a malformed document is its own exit code, surfaced before any
// command has a chance to run.
func extractBlocks(src markdown.Source) ([]model.Block, error) {
	blocks, err := markdown.Extract(src)
	if err != nil {
		if errors.Is(err, markdown.ErrMalformedDocument) {
			return nil, model.WrapCLIError(model.ExitMalformedDocument, "malformed document", err)
		}
		return nil, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("cannot extract blocks from %s", src.Path), err)
	}
	return blocks, nil
}

// applyRange narrows blocks to the --from/--until slice, translating
// an unmatched marker into its dedicated exit code.
func applyRange(blocks []model.Block, from, until string) ([]model.Block, error) {
	if from == "" && until == "" {
		return blocks, nil
	}
	narrowed, err := runner.Range(blocks, from, until)
	if err != nil {
		if errors.Is(err, runner.ErrMarkerNotFound) {
			return nil, model.WrapCLIError(model.ExitMarkerNotFound, "range marker not found", err)
		}
		return nil, err
	}
	VerboseLog("Range narrowed to %d block(s)", len(narrowed))
	return narrowed, nil
}

// documentOptions merges the option layers for one document and
// builds the runner options. Precedence, lowest to highest: built-in
// defaults, the project config file, the document's frontmatter, the
// command-line flags.
func documentOptions(path string, cfg *config.File, meta markdown.Meta, flags *runFlags, recursive bool) (runner.Options, error) {
	// A discovered document runs next to itself by default — running a
	// README anywhere but its own directory would break every relative
	// path in it. Explicitly named documents keep the process cwd.
	var base optionLayer
	if recursive {
		base.dir = filepath.Dir(path)
	}

	// A relative frontmatter dir is relative to the document that
	// declares it, not to wherever mdrun was invoked.
	if meta.Dir != "" && !filepath.IsAbs(meta.Dir) {
		meta.Dir = filepath.Join(filepath.Dir(path), meta.Dir)
	}

	flagEnv, err := parseEnvFlags(flags.env)
	if err != nil {
		return runner.Options{}, err
	}
	flagLayer := optionLayer{
		dir:   flags.dir,
		delay: flags.delay,
		shell: flags.shell,
		skip:  flags.skip,
		env:   flagEnv,
	}
	if flags.stripPromptsSet {
		flagLayer.stripPrompts = &flags.stripPrompts
	}

	opts, err := resolveOptions(base, configLayer(cfg), metaLayer(meta), flagLayer)
	if err != nil {
		return runner.Options{}, err
	}

	if opts.dir != "" {
		info, statErr := os.Stat(opts.dir)
		if statErr != nil {
			return runner.Options{}, model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("working directory %s is not accessible", opts.dir), statErr)
		}
		if !info.IsDir() {
			return runner.Options{}, model.NewCLIError(model.ExitGeneralError,
				fmt.Sprintf("working directory %s is not a directory", opts.dir))
		}
	}

	return runner.Options{
		Dir:          opts.dir,
		Delay:        opts.delay,
		Shell:        opts.shell,
		Env:          opts.env,
		StripPrompts: opts.stripPrompts,
		Skip:         opts.skip,
	}, nil
}

// loadProjectConfig finds and loads the project config file from the
// current directory. No config file means a nil config, not an error.
func loadProjectConfig() (*config.File, error) {
	path, err := config.Find(".")
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "cannot probe for config file", err)
	}
	if path == "" {
		return nil, nil
	}
	VerboseLog("Using config file %s", path)

	cfg, err := config.Load(path)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "invalid config file", err)
	}
	return cfg, nil
}

// resolveTargets determines which documents to process. Positional
// arguments win; otherwise the config file's list; otherwise the
// default document. With --recursive, the target name (default
// README.md) is instead discovered throughout the tree below the
// current directory.
func resolveTargets(args []string, cfg *config.File, recursive bool) ([]string, bool, error) {
	if recursive {
		name := DefaultDocument
		if len(args) == 1 {
			name = filepath.Base(args[0])
		} else if len(args) > 1 {
			return nil, false, model.NewCLIError(model.ExitGeneralError,
				"--recursive takes at most one document name")
		}

		paths, err := markdown.Discover(".", name)
		if err != nil {
			return nil, false, model.WrapCLIError(model.ExitGeneralError, "document discovery failed", err)
		}
		if len(paths) == 0 {
			return nil, false, model.NewCLIError(model.ExitGeneralError,
				fmt.Sprintf("no %s files found below the current directory", name))
		}
		return paths, true, nil
	}

	if len(args) > 0 {
		return args, false, nil
	}
	if cfg != nil && len(cfg.Files) > 0 {
		return cfg.Files, false, nil
	}
	return []string{DefaultDocument}, false, nil
}

// printBlockHeader writes the transcript header for a command about
// to run: a separator line, then the block text exactly as written in
// the document.
func printBlockHeader(block model.Block) {
	headerColor.Println("---")
	fmt.Println(block.Text)
}

// printRunReport outputs the result of one document run in text or
// JSON format, depending on the global --json flag.
func printRunReport(report *model.Report) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(data))
		return
	}

	if failed := report.Failed(); failed != nil {
		failColor.Printf("%s: block %d (line %d) %s\n",
			report.Source, failed.Block.Index, failed.Block.Line, failed.Describe())
		return
	}

	summary := fmt.Sprintf("%s: %d block(s) passed", report.Source, report.Ran())
	if skipped := report.Skipped(); skipped > 0 {
		summary += skippedColor.Sprintf(" (%d skipped)", skipped)
	}
	passColor.Println(summary)
}
