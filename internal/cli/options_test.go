// Package cli — options_test.go tests the layered run-option merge.
//
// The merge is a pure function, so precedence (defaults < config file
// < frontmatter < flags) is verified here without any filesystem or
// cobra plumbing.
package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/mdrun/internal/config"
	"github.com/mmr-tortoise/mdrun/internal/markdown"
	"github.com/mmr-tortoise/mdrun/internal/model"
)

// boolPtr is a test helper for pointer-valued option fields.
func boolPtr(b bool) *bool {
	return &b
}

func TestResolveOptions_Empty(t *testing.T) {
	opts, err := resolveOptions()
	require.NoError(t, err)

	assert.Empty(t, opts.dir)
	assert.Zero(t, opts.delay)
	assert.Empty(t, opts.shell)
	assert.False(t, opts.stripPrompts)
	assert.Nil(t, opts.skip)
	assert.Empty(t, opts.env)
}

// TestResolveOptions_Precedence verifies later layers override
// earlier ones field by field, and that a layer with no opinion on a
// field leaves the earlier value standing.
func TestResolveOptions_Precedence(t *testing.T) {
	cfg := configLayer(&config.File{
		Dir:          "/from-config",
		Delay:        "1s",
		Shell:        "/bin/bash",
		StripPrompts: boolPtr(true),
	})
	meta := metaLayer(markdown.Meta{
		Delay: "2s",
	})
	flags := optionLayer{
		shell: "/bin/zsh",
	}

	opts, err := resolveOptions(cfg, meta, flags)
	require.NoError(t, err)

	assert.Equal(t, "/from-config", opts.dir, "untouched by later layers")
	assert.Equal(t, 2*time.Second, opts.delay, "frontmatter overrides config")
	assert.Equal(t, "/bin/zsh", opts.shell, "flags override everything")
	assert.True(t, opts.stripPrompts, "config value survives silent later layers")
}

// TestResolveOptions_ExplicitFalseOverrides verifies a later layer's
// explicit false beats an earlier true — the reason StripPrompts is a
// pointer everywhere.
func TestResolveOptions_ExplicitFalseOverrides(t *testing.T) {
	opts, err := resolveOptions(
		optionLayer{stripPrompts: boolPtr(true)},
		optionLayer{stripPrompts: boolPtr(false)},
	)
	require.NoError(t, err)
	assert.False(t, opts.stripPrompts)
}

// TestResolveOptions_EnvMerges verifies the environment is additive
// across layers, later layers winning on duplicate keys, and that the
// result is sorted for determinism.
func TestResolveOptions_EnvMerges(t *testing.T) {
	opts, err := resolveOptions(
		optionLayer{env: map[string]string{"B": "config", "A": "config"}},
		optionLayer{env: map[string]string{"B": "meta", "C": "meta"}},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"A=config", "B=meta", "C=meta"}, opts.env)
}

func TestResolveOptions_SkipCompiles(t *testing.T) {
	opts, err := resolveOptions(optionLayer{skip: `^docker `})
	require.NoError(t, err)
	require.NotNil(t, opts.skip)
	assert.True(t, opts.skip.MatchString("docker compose up"))
	assert.False(t, opts.skip.MatchString("echo docker"))
}

// TestResolveOptions_Invalid verifies validation failures surface as
// general CLI errors naming the bad field, regardless of which layer
// contributed the value.
func TestResolveOptions_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		layer optionLayer
		want  string
	}{
		{"unparseable delay", optionLayer{delay: "2sec"}, "invalid delay"},
		{"negative delay", optionLayer{delay: "-1s"}, "invalid delay"},
		{"bad skip regex", optionLayer{skip: "("}, "invalid skip pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolveOptions(tt.layer)
			require.Error(t, err)

			cliErr, ok := err.(*model.CLIError)
			require.True(t, ok)
			assert.Equal(t, model.ExitGeneralError, cliErr.Code)
			assert.Contains(t, cliErr.Message, tt.want)
		})
	}
}

func TestParseEnvFlags(t *testing.T) {
	env, err := parseEnvFlags([]string{"A=1", "B=x=y", "C="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "1", "B": "x=y", "C": ""}, env)

	env, err = parseEnvFlags(nil)
	require.NoError(t, err)
	assert.Nil(t, env)

	_, err = parseEnvFlags([]string{"NOVALUE"})
	assert.Error(t, err)

	_, err = parseEnvFlags([]string{"=broken"})
	assert.Error(t, err)
}
