package runner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/mdrun/internal/model"
)

func TestStripPrompts(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"single prompted line", "$ echo hi", "echo hi"},
		{"unprompted line passes through", "echo hi", "echo hi"},
		{"bare prompt becomes empty", "$", ""},
		{"mixed transcript", "$ make build\nbuild output\n$ make test", "make build\nbuild output\nmake test"},
		{"dollar without space is not a prompt", "$HOME/bin/tool", "$HOME/bin/tool"},
		{"empty text", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripPrompts(tt.text))
		})
	}
}

// TestScript_Prologue verifies every exported script opens with the
// shebang and set -e, giving it the same halt-on-first-failure
// contract as a live run.
func TestScript_Prologue(t *testing.T) {
	script := Script([]model.Block{{Text: "echo one"}}, Options{})

	assert.True(t, strings.HasPrefix(script, "#!/bin/sh\nset -e\n"))
	assert.Contains(t, script, "\necho one\n")
}

func TestScript_EmptySequence(t *testing.T) {
	assert.Equal(t, "#!/bin/sh\nset -e\n", Script(nil, Options{}))
}

// TestScript_BlocksInOrderSeparatedByBlankLines verifies block order
// and the blank-line separation between blocks.
func TestScript_BlocksInOrderSeparatedByBlankLines(t *testing.T) {
	script := Script([]model.Block{
		{Index: 0, Text: "mkdir demo"},
		{Index: 1, Text: "cd demo\ntouch file"},
	}, Options{})

	want := "#!/bin/sh\n" +
		"set -e\n" +
		"\n" +
		"mkdir demo\n" +
		"\n" +
		"cd demo\n" +
		"touch file\n"
	assert.Equal(t, want, script)
}

// TestScript_StripPrompts verifies the exported script runs what a
// live run with the same options would have run.
func TestScript_StripPrompts(t *testing.T) {
	seq := []model.Block{{Text: "$ echo hi"}}

	stripped := Script(seq, Options{StripPrompts: true})
	kept := Script(seq, Options{})

	require.Contains(t, stripped, "\necho hi\n")
	assert.NotContains(t, stripped, "$ echo hi")
	assert.Contains(t, kept, "\n$ echo hi\n")
}
