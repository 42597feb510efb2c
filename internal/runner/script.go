package runner

import (
	"strings"

	"github.com/mmr-tortoise/mdrun/internal/model"
)

// promptPrefix is the transcript prompt that StripPrompts removes.
const promptPrefix = "$ "

// StripPrompts removes a leading "$ " from every line of a block
// body, turning documentation written in transcript style
//
//	$ mkdir demo
//	$ cd demo
//
// back into runnable commands. A line consisting of a bare "$" (a
// prompt with no command) becomes empty. Lines without a prompt pass
// through untouched, so mixed prompt/output transcripts lose only the
// prompts.
func StripPrompts(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, promptPrefix):
			lines[i] = line[len(promptPrefix):]
		case line == "$":
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}

// Script renders a block sequence into a standalone POSIX shell
// script equivalent to running the blocks live: a /bin/sh shebang and
// a set -e prologue give the script the same halt-on-first-failure
// contract as the Runner, then each block's text follows in order,
// separated by blank lines.
//
// When opts.StripPrompts is set, blocks are prompt-stripped exactly as
// they would be at launch time, so the exported script runs what a
// live run would have run.
func Script(blocks []model.Block, opts Options) string {
	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	b.WriteString("set -e\n")

	for _, block := range blocks {
		text := block.Text
		if opts.StripPrompts {
			text = StripPrompts(text)
		}
		b.WriteString("\n")
		b.WriteString(text)
		b.WriteString("\n")
	}

	return b.String()
}
