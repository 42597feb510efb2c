// Package config loads mdrun project configuration files.
//
// A project may pin run defaults in a config file at its root so every
// contributor runs the documentation the same way. Two formats are
// supported: YAML (.mdrun.yaml / .mdrun.yml, parsed with yaml.v3) and
// JSONC (.mdrun.jsonc / .mdrun.json, comments and trailing commas
// stripped with github.com/tidwall/jsonc before standard JSON
// parsing). The keys mirror the run options; unknown keys are
// silently ignored so a config written for a newer mdrun still loads.
//
// The config file is one layer of the option stack — built-in
// defaults, then the project file, then document frontmatter, then
// command-line flags — and the merge itself lives in the CLI layer,
// not here. This package only finds and decodes the file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// candidates are the config file names Find probes, in priority
// order. The first one that exists wins; YAML outranks JSONC only
// because something has to.
var candidates = []string{
	".mdrun.yaml",
	".mdrun.yml",
	".mdrun.jsonc",
	".mdrun.json",
}

// File is the decoded project configuration. All fields are optional;
// the zero value imposes nothing.
//
// Duration-valued settings are kept as strings here and parsed
// centrally when the option layers are merged, so a typo like "2sec"
// is reported once with the field name rather than as a decode error.
type File struct {
	// Files lists the markdown documents to process when the command
	// line names none. Paths are relative to the config file's
	// directory by convention, but are passed through untouched.
	Files []string `yaml:"files" json:"files"`

	// Delay is the inter-command delay, in time.ParseDuration syntax
	// (e.g. "2s", "500ms").
	Delay string `yaml:"delay" json:"delay"`

	// Dir is the working directory for launched commands.
	Dir string `yaml:"dir" json:"dir"`

	// Shell is the interpreter blocks are handed to.
	Shell string `yaml:"shell" json:"shell"`

	// StripPrompts enables "$ " prompt stripping. A pointer so the
	// merge can distinguish "not set" from an explicit false.
	StripPrompts *bool `yaml:"strip_prompts" json:"stripPrompts"`

	// Skip is a regular expression; blocks whose text matches are
	// skipped instead of run.
	Skip string `yaml:"skip" json:"skip"`

	// Env holds extra environment variables for every launched
	// command.
	Env map[string]string `yaml:"env" json:"env"`
}

// Find probes dir for a config file and returns the path of the
// first candidate that exists. A project without a config file is the
// common case, not an error: Find returns ("", nil) when nothing is
// found.
func Find(dir string) (string, error) {
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", fmt.Errorf("failed to probe %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		return path, nil
	}
	return "", nil
}

// Load reads and decodes a config file, dispatching on its extension:
// .yaml/.yml decode as YAML, everything else as JSONC.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	default:
		// Strip comments and trailing commas first; config files are
		// exactly where people want to annotate their choices.
		if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	return &cfg, nil
}
