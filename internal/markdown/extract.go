package markdown

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmr-tortoise/mdrun/internal/model"
)

// ShellTag is the fence language tag that marks a block as containing
// shell commands. Only blocks tagged exactly with it are extracted;
// untagged blocks and blocks tagged with any other language are not
// represented at all.
const ShellTag = "shell"

// ErrMalformedDocument is the sentinel for documents the extractor
// refuses to process. Use errors.Is to detect it; the concrete error is
// a *ParseError carrying the position of the offending fence.
var ErrMalformedDocument = errors.New("malformed document")

// ParseError reports a document whose fencing cannot be parsed, which
// today means exactly one thing: an opening fence with no closing
// fence. Execution must never begin on such a document, because the
// truncated block would run a half-written command.
type ParseError struct {
	// Path is the document the error was found in.
	Path string

	// Line is the 1-based line number of the unterminated opening fence.
	Line int

	// FenceLen is the backtick run length of the opening fence. A valid
	// closing fence would need a run at least this long.
	FenceLen int
}

// Error satisfies the error interface with a file:line diagnostic.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: code fence opened at line %d is never closed (needs a closing run of at least %d backticks)",
		e.Path, e.Line, e.FenceLen)
}

// Unwrap makes errors.Is(err, ErrMalformedDocument) work.
func (e *ParseError) Unwrap() error {
	return ErrMalformedDocument
}

// Extract scans a markdown document and returns its shell command
// blocks in order of appearance. It is a pure function of the source:
// no file I/O, no side effects, and the returned blocks copy their text
// out of the source so they stay valid however the caller reuses it.
//
// A document with no shell blocks extracts to an empty sequence, not an
// error. A document with an unterminated fence returns a *ParseError
// wrapping ErrMalformedDocument and no blocks at all.
func Extract(src Source) ([]model.Block, error) {
	var blocks []model.Block

	// Scanner state. Fences do not nest, so one open-fence record is
	// all the state there is: the run length that a closing fence must
	// meet, whether the body is worth keeping, and where the block
	// started for diagnostics.
	inFence := false
	var fenceLen int
	var isShell bool
	var openLine int
	var body []string

	for i, line := range splitLines(src.Content) {
		runLen, rest, isFence := fenceLine(line)

		if !inFence {
			if !isFence {
				continue
			}
			inFence = true
			fenceLen = runLen
			isShell = fenceTag(rest) == ShellTag
			openLine = i + 1
			body = nil
			continue
		}

		// Inside a fence: only a bare fence line with a run at least as
		// long as the opener closes the block. Anything else — shorter
		// runs, tagged fence lines, ordinary text — is literal content.
		if isFence && runLen >= fenceLen && strings.TrimSpace(rest) == "" {
			if isShell {
				blocks = append(blocks, model.Block{
					Index: len(blocks),
					Line:  openLine,
					Text:  strings.Join(body, "\n"),
				})
			}
			inFence = false
			continue
		}

		if isShell {
			body = append(body, line)
		}
	}

	if inFence {
		return nil, &ParseError{Path: src.Path, Line: openLine, FenceLen: fenceLen}
	}
	return blocks, nil
}

// splitLines splits a document into lines, accepting both LF and CRLF
// endings. Exactly one trailing carriage return is removed per line so
// CRLF documents produce the same blocks as their LF equivalents.
func splitLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// fenceLine reports whether a line is a fence: a run of three or more
// backticks starting at column zero. It returns the run length and the
// remainder of the line after the run. Indented fences are deliberately
// not recognized; documentation fences start at column zero.
func fenceLine(line string) (runLen int, rest string, ok bool) {
	n := 0
	for n < len(line) && line[n] == '`' {
		n++
	}
	if n < 3 {
		return 0, "", false
	}
	return n, line[n:], true
}

// fenceTag extracts the language tag from the text following an opening
// fence run. The tag must start immediately after the backticks; a
// leading space means the fence carries no tag. Trailing info text
// after the tag token is ignored, so ```shell session still reads as a
// shell fence while ``` shell does not.
func fenceTag(rest string) string {
	if rest == "" {
		return ""
	}
	if rest[0] == ' ' || rest[0] == '\t' {
		return ""
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
