// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads the files graphload reads besides its inputs: the
// options file passed with --optsfile and the engine alias file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/graphload/pkg/engine"
)

// AliasesEnv overrides the default alias file location.
const AliasesEnv = "GRAPHLOAD_ALIASES"

// Dir returns the per-user graphload directory, ~/.graphload.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, ".graphload"), nil
}

// LoadOpts reads engine options from a YAML file. Keys other than vars,
// view and editformat are passed through to the engine untouched.
// An empty file yields empty options.
func LoadOpts(path string) (*engine.Opts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read optsfile: %w", err)
	}

	opts := &engine.Opts{}
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("parse optsfile %s: %w", path, err)
	}
	return opts, nil
}

// Aliases maps short names to engine URLs.
type Aliases map[string]string

type aliasFile struct {
	Aliases Aliases `yaml:"aliases"`
}

// AliasPath returns the alias file to use: path when set, otherwise
// $GRAPHLOAD_ALIASES, otherwise ~/.graphload/aliases.yaml.
func AliasPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	if env := os.Getenv(AliasesEnv); env != "" {
		return env, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "aliases.yaml"), nil
}

// LoadAliases reads the alias file selected by AliasPath. A missing file
// is not an error when no explicit path was given.
func LoadAliases(path string) (Aliases, error) {
	resolved, err := AliasPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(resolved)
	if errors.Is(err, fs.ErrNotExist) && path == "" {
		return Aliases{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read alias file: %w", err)
	}

	var f aliasFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse alias file %s: %w", resolved, err)
	}
	if f.Aliases == nil {
		f.Aliases = Aliases{}
	}
	for name, url := range f.Aliases {
		if strings.TrimSpace(url) == "" {
			return nil, fmt.Errorf("alias %q in %s has no url", name, resolved)
		}
	}
	return f.Aliases, nil
}

// Resolve returns the URL registered for name.
func (a Aliases) Resolve(name string) (string, bool) {
	url, ok := a[name]
	return url, ok
}

// Names returns the alias names in sorted order.
func (a Aliases) Names() []string {
	names := make([]string, 0, len(a))
	for n := range a {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
