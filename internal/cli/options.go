// Package cli — options.go implements the layered run-option merge.
//
// Run options arrive from four places, lowest to highest precedence:
// built-in defaults, the project config file, the document's YAML
// frontmatter, and command-line flags. Each source contributes one
// optionLayer; resolveOptions overlays them in order and then parses
// and validates the winning values. Keeping the merge a pure function
// makes the precedence rules directly testable without touching the
// filesystem or a cobra command.
package cli

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/mmr-tortoise/mdrun/internal/config"
	"github.com/mmr-tortoise/mdrun/internal/markdown"
	"github.com/mmr-tortoise/mdrun/internal/model"
)

// optionLayer is one source's contribution to the run options. Empty
// strings and nil pointers mean "this source has no opinion"; a later
// layer only overrides the fields it actually sets. Env is the one
// additive field: maps merge key by key, later layers winning on
// duplicates, because a document adding one variable should not wipe
// out the project's.
type optionLayer struct {
	dir          string
	delay        string
	shell        string
	stripPrompts *bool
	skip         string
	env          map[string]string
}

// runOptions holds the fully resolved and validated options for one
// document run.
type runOptions struct {
	dir          string
	delay        time.Duration
	shell        string
	stripPrompts bool
	skip         *regexp.Regexp
	env          []string
}

// configLayer converts a loaded project config file into an
// optionLayer. A nil config (no file found) contributes nothing.
func configLayer(cfg *config.File) optionLayer {
	if cfg == nil {
		return optionLayer{}
	}
	return optionLayer{
		dir:          cfg.Dir,
		delay:        cfg.Delay,
		shell:        cfg.Shell,
		stripPrompts: cfg.StripPrompts,
		skip:         cfg.Skip,
		env:          cfg.Env,
	}
}

// metaLayer converts a document's frontmatter envelope into an
// optionLayer.
func metaLayer(meta markdown.Meta) optionLayer {
	return optionLayer{
		dir:          meta.Dir,
		delay:        meta.Delay,
		shell:        meta.Shell,
		stripPrompts: meta.StripPrompts,
		skip:         meta.Skip,
		env:          meta.Env,
	}
}

// resolveOptions overlays the layers in order (later wins) and parses
// the winning values. Validation failures — an unparseable or
// negative delay, a bad skip regex — are CLIErrors with the general
// error code, reported once with the field name regardless of which
// layer contributed the bad value.
func resolveOptions(layers ...optionLayer) (runOptions, error) {
	merged := optionLayer{env: map[string]string{}}
	for _, layer := range layers {
		if layer.dir != "" {
			merged.dir = layer.dir
		}
		if layer.delay != "" {
			merged.delay = layer.delay
		}
		if layer.shell != "" {
			merged.shell = layer.shell
		}
		if layer.stripPrompts != nil {
			merged.stripPrompts = layer.stripPrompts
		}
		if layer.skip != "" {
			merged.skip = layer.skip
		}
		for k, v := range layer.env {
			merged.env[k] = v
		}
	}

	opts := runOptions{
		dir:   merged.dir,
		shell: merged.shell,
	}

	if merged.delay != "" {
		delay, err := time.ParseDuration(merged.delay)
		if err != nil {
			return runOptions{}, model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("invalid delay %q", merged.delay), err)
		}
		if delay < 0 {
			return runOptions{}, model.NewCLIError(model.ExitGeneralError,
				fmt.Sprintf("invalid delay %q: must not be negative", merged.delay))
		}
		opts.delay = delay
	}

	if merged.stripPrompts != nil {
		opts.stripPrompts = *merged.stripPrompts
	}

	if merged.skip != "" {
		skip, err := regexp.Compile(merged.skip)
		if err != nil {
			return runOptions{}, model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("invalid skip pattern %q", merged.skip), err)
		}
		opts.skip = skip
	}

	// Sort the merged environment for deterministic child environments
	// and stable test expectations.
	keys := make([]string, 0, len(merged.env))
	for k := range merged.env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		opts.env = append(opts.env, k+"="+merged.env[k])
	}

	return opts, nil
}

// parseEnvFlags converts repeated --env KEY=VALUE flags into the map
// form the option layers use. A flag without "=" is an error rather
// than a silently empty variable.
func parseEnvFlags(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, model.NewCLIError(model.ExitGeneralError,
				fmt.Sprintf("invalid --env value %q: expected KEY=VALUE", pair))
		}
		env[key] = value
	}
	return env, nil
}
