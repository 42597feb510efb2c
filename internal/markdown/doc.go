// Package markdown locates shell command blocks inside markdown
// documents.
//
// The extractor is a small line scanner with two states (outside a
// fence, inside a fence) rather than a full markdown engine: the only
// markdown construct it understands is the column-zero backtick fence,
// which is all that is needed to lift ```shell blocks out of a
// document. Matching follows the fence run-length rule — a closing
// fence must be at least as long as its opening fence and carries no
// tag — so backtick runs inside a block body are treated as literal
// content and never start a nested block.
//
// A fence that is never closed is a hard error: a truncated shell
// block must never be silently executed.
//
// The package also provides the collaborator-layer pieces that sit
// next to extraction: loading a document from disk, discovering
// documents recursively, and reading the optional YAML frontmatter
// envelope that lets a document declare its own run options.
package markdown
