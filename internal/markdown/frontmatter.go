package markdown

import (
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"
)

// Meta is the optional frontmatter envelope a document may open with to
// declare its own run options:
//
//	---
//	delay: 2s
//	dir: ./demo
//	shell: /bin/bash
//	strip_prompts: true
//	env:
//	  GREETING: hello
//	---
//
// Durations are kept as strings here and validated centrally when the
// option layers are merged, so a typo is reported once with the field
// name rather than as a YAML type error. StripPrompts is a pointer to
// distinguish "not set" from an explicit false during that merge.
type Meta struct {
	Delay        string            `yaml:"delay"`
	Dir          string            `yaml:"dir"`
	Shell        string            `yaml:"shell"`
	StripPrompts *bool             `yaml:"strip_prompts"`
	Skip         string            `yaml:"skip"`
	Env          map[string]string `yaml:"env"`
}

// ParseMeta reads the document's frontmatter envelope. A document
// without frontmatter yields a zero Meta and no error; malformed
// frontmatter is an error, since silently ignoring a half-written
// envelope would run the document with options the author thought they
// had changed.
//
// Extraction always operates on the full original text, never on the
// body returned by the frontmatter parser, so block line numbers keep
// matching the file on disk.
func ParseMeta(src Source) (Meta, error) {
	var meta Meta
	if _, err := frontmatter.Parse(strings.NewReader(src.Content), &meta); err != nil {
		return Meta{}, fmt.Errorf("%s: failed to parse frontmatter: %w", src.Path, err)
	}
	return meta, nil
}
