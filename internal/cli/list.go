// Package cli — list.go implements the "mdrun list" command.
//
// The list command shows which shell blocks a document would run,
// without running anything: one row per block with its index, opening
// fence line, line count, and first command line. It is the dry-run
// companion to "mdrun run" — the fastest way to check what a
// document's fences actually select before executing them.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/mdrun/internal/markdown"
	"github.com/mmr-tortoise/mdrun/internal/model"
)

// NewListCommand creates the "list" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [file...]",
		Short: "List the shell blocks of one or more markdown documents",
		Long: `List the shell command blocks the given markdown documents contain,
without executing anything.

With no arguments the documents come from the project config file,
or default to README.md.

Examples:
  mdrun list
  mdrun list docs/setup.md
  mdrun list --json`,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(args)
		},
	}

	return cmd
}

// documentBlocks pairs a document path with its extracted blocks, for
// both the text and JSON output paths.
type documentBlocks struct {
	Source string        `json:"source"`
	Blocks []model.Block `json:"blocks"`
}

// runList is the main logic function for the list command. It
// resolves the target documents the same way run does, extracts each
// one, and prints the blocks.
func runList(args []string) error {
	cfg, err := loadProjectConfig()
	if err != nil {
		return err
	}

	targets, _, err := resolveTargets(args, cfg, false)
	if err != nil {
		return err
	}

	docs := make([]documentBlocks, 0, len(targets))
	for _, path := range targets {
		src, err := markdown.Load(path)
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("cannot load %s", path), err)
		}

		blocks, err := extractBlocks(src)
		if err != nil {
			return err
		}

		docs = append(docs, documentBlocks{
			Source: path,
			// Empty slice instead of nil so JSON output shows []
			// rather than null for a document without shell blocks.
			Blocks: append([]model.Block{}, blocks...),
		})
	}

	printListResult(docs)
	return nil
}

// printListResult outputs the extracted blocks in text or JSON
// format, depending on the global --json flag.
func printListResult(docs []documentBlocks) {
	if IsJSONOutput() {
		printListResultJSON(docs)
	} else {
		printListResultText(docs)
	}
}

// printListResultJSON outputs the block lists as structured JSON.
// The top-level key is "documents" containing one entry per document.
func printListResultJSON(docs []documentBlocks) {
	type resultJSON struct {
		Documents []documentBlocks `json:"documents"`
	}

	// MarshalIndent produces human-readable JSON with 2-space indentation.
	data, _ := json.MarshalIndent(resultJSON{Documents: docs}, "", "  ")
	fmt.Println(string(data))
}

// printListResultText outputs the block lists as a human-readable
// text table with aligned columns, one section per document.
//
// The table format is:
//
//	docs/setup.md: 3 shell block(s)
//	INDEX  LINE   LINES  COMMAND
//	0      4      1      mkdir -p build
//	1      12     2      cd build
//	2      20     1      make test
func printListResultText(docs []documentBlocks) {
	for i, doc := range docs {
		if i > 0 {
			fmt.Println()
		}

		if len(doc.Blocks) == 0 {
			fmt.Printf("%s: no shell blocks\n", doc.Source)
			continue
		}

		fmt.Printf("%s: %d shell block(s)\n", doc.Source, len(doc.Blocks))
		fmt.Printf("%-6s %-6s %-6s %s\n", "INDEX", "LINE", "LINES", "COMMAND")
		for _, block := range doc.Blocks {
			fmt.Printf("%-6d %-6d %-6d %s\n",
				block.Index,
				block.Line,
				block.LineCount(),
				FormatCommandSummary(block),
			)
		}
	}
}

// FormatCommandSummary returns the one-line summary shown in the
// COMMAND column: the block's first line, with a trailing ellipsis
// when the block continues past it.
//
// This function is exported for testing purposes (tested in list_test.go).
func FormatCommandSummary(block model.Block) string {
	summary := block.FirstLine()
	if summary == "" {
		if block.LineCount() > 1 {
			return "..."
		}
		return "(empty)"
	}
	if block.LineCount() > 1 {
		summary += " ..."
	}
	return summary
}
