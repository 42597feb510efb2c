// Package cli — export.go implements the "mdrun export" command.
//
// The export command renders a document's shell blocks into a
// standalone POSIX shell script instead of running them. The script
// carries a set -e prologue, so executing it later keeps the same
// halt-on-first-failure contract as a live mdrun run. Multiple
// documents concatenate into one script in argument order.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/mdrun/internal/config"
	"github.com/mmr-tortoise/mdrun/internal/markdown"
	"github.com/mmr-tortoise/mdrun/internal/model"
	"github.com/mmr-tortoise/mdrun/internal/runner"
)

// exportFlags holds the flag values for the export command.
// These are bound to cobra flags in NewExportCommand.
type exportFlags struct {
	output       string // --output: write the script here instead of stdout
	stripPrompts bool   // --strip-prompts: remove "$ " transcript prompts
	from         string // --from: first block marker line
	until        string // --until: last block marker line

	// stripPromptsSet records whether --strip-prompts was given, for
	// the same merge reason as in run.go.
	stripPromptsSet bool
}

// NewExportCommand creates the "export" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewExportCommand() *cobra.Command {
	flags := &exportFlags{}

	cmd := &cobra.Command{
		Use:   "export [file...]",
		Short: "Render shell blocks into a standalone shell script",
		Long: `Render the shell command blocks of the given markdown documents into
a standalone POSIX shell script on stdout (or --output).

The script starts with set -e, so running it stops at the first
failing command, just like mdrun run.

Examples:
  mdrun export
  mdrun export docs/setup.md --output setup.sh
  mdrun export --from "make build" --strip-prompts`,

		RunE: func(cmd *cobra.Command, args []string) error {
			flags.stripPromptsSet = cmd.Flags().Changed("strip-prompts")
			return runExport(args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Write the script to this file (mode 0755) instead of stdout")
	cmd.Flags().BoolVar(&flags.stripPrompts, "strip-prompts", false, "Strip leading \"$ \" prompts from block lines")
	cmd.Flags().StringVar(&flags.from, "from", "", "Start at the first block containing this exact line")
	cmd.Flags().StringVar(&flags.until, "until", "", "Stop after the first block containing this exact line")

	return cmd
}

// runExport is the main logic function for the export command.
func runExport(args []string, flags *exportFlags) error {
	cfg, err := loadProjectConfig()
	if err != nil {
		return err
	}

	targets, _, err := resolveTargets(args, cfg, false)
	if err != nil {
		return err
	}

	var blocks []model.Block
	for _, path := range targets {
		src, err := markdown.Load(path)
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("cannot load %s", path), err)
		}

		meta, err := markdown.ParseMeta(src)
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "invalid frontmatter", err)
		}

		docBlocks, err := extractBlocks(src)
		if err != nil {
			return err
		}

		docBlocks, err = applyRange(docBlocks, flags.from, flags.until)
		if err != nil {
			return err
		}

		// Only the prompt-stripping option affects an exported script;
		// merge it through the same layer stack the run command uses
		// so the script runs what a live run would have run. The option
		// is per document — each document's own frontmatter decides for
		// its own blocks — so stripping is applied here, to this
		// document's blocks, before they join the combined script.
		stripPrompts, err := exportStripPrompts(cfg, meta, flags)
		if err != nil {
			return err
		}
		if stripPrompts {
			for i := range docBlocks {
				docBlocks[i].Text = runner.StripPrompts(docBlocks[i].Text)
			}
		}

		blocks = append(blocks, docBlocks...)
	}

	script := runner.Script(blocks, runner.Options{})

	if flags.output == "" {
		fmt.Print(script)
		return nil
	}

	// 0755 so the exported script is directly runnable.
	// #nosec G306 — an executable script is the point of the command.
	if err := os.WriteFile(flags.output, []byte(script), 0o755); err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("cannot write script to %s", flags.output), err)
	}
	VerboseLog("Wrote %d block(s) to %s", len(blocks), flags.output)
	return nil
}

// exportStripPrompts resolves the prompt-stripping option for one
// exported document through the standard precedence stack.
func exportStripPrompts(cfg *config.File, meta markdown.Meta, flags *exportFlags) (bool, error) {
	flagLayer := optionLayer{}
	if flags.stripPromptsSet {
		flagLayer.stripPrompts = &flags.stripPrompts
	}

	opts, err := resolveOptions(configLayer(cfg), metaLayer(meta), flagLayer)
	if err != nil {
		return false, err
	}
	return opts.stripPrompts, nil
}
