// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"path/filepath"
)

type (
	// LoadOptions selects where configuration is read from. The zero value
	// looks in the platform config directory.
	LoadOptions struct {
		// ConfigFilePath is the --config flag. When set the file must exist.
		ConfigFilePath string
		// ConfigDirPath replaces ConfigDir when set.
		ConfigDirPath string
	}

	// Provider resolves and loads the server configuration. Sources apply in
	// increasing priority:
	//
	//  1. DefaultConfig
	//  2. LoadOptions.ConfigFilePath, otherwise config.cue in the config directory
	//  3. SPITO_LSP_* environment variables
	Provider interface {
		// Load returns the validated effective configuration.
		Load(ctx context.Context, opts LoadOptions) (*Config, error)
		// Path returns the config file Load reads, or "" when only defaults
		// and the environment apply.
		Path(opts LoadOptions) (string, error)
	}

	fileProvider struct{}
)

// NewProvider creates a Provider backed by CUE files and the environment.
func NewProvider() Provider {
	return &fileProvider{}
}

func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, _, err := loadWithOptions(ctx, opts)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (p *fileProvider) Path(opts LoadOptions) (string, error) {
	return resolvePath(opts)
}

// DefaultPath returns where config.cue is looked up when no explicit file is
// given, whether or not it exists.
func DefaultPath(opts LoadOptions) (string, error) {
	dir := opts.ConfigDirPath
	if dir == "" {
		d, err := ConfigDir()
		if err != nil {
			return "", err
		}
		dir = d
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// resolvePath applies the file lookup order: the explicit path wins, then an
// existing config.cue in the config directory.
func resolvePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		return opts.ConfigFilePath, nil
	}
	path, err := DefaultPath(opts)
	if err != nil {
		return "", err
	}
	if !fileExists(path) {
		return "", nil
	}
	return path, nil
}
