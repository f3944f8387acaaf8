package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		BuildRoot: ".",
		Timeout:   DefaultTimeout,
		Repository: Repository{
			TagsURL:       DefaultTagsURL,
			ArchivePrefix: DefaultArchivePrefix,
			Name:          DefaultRepoName,
		},
		Channels: map[string]int{
			"Prod":  2,
			"Devel": 2,
		},
		Tool: ToolConfig{
			Name:     DefaultToolName,
			CacheDir: filepath.Join(os.TempDir(), DefaultToolCacheName),
		},
	}
}

// ResolvePath picks the config file to load. An explicit path wins, then
// $EXINSTALL_CONFIG, then DefaultConfigPath if it exists. The returned
// path is empty when no file applies. getenv may be nil.
func ResolvePath(explicit string, getenv func(string) string) (path string, required bool, err error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	switch {
	case explicit != "":
		path, required = explicit, true
	case getenv(EnvConfigPath) != "":
		path, required = getenv(EnvConfigPath), true
	default:
		path = DefaultConfigPath
	}

	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", false, fmt.Errorf("expand config path %s: %w", path, err)
	}

	if !required {
		if _, err := os.Stat(expanded); err != nil {
			return "", false, nil
		}
	}

	return expanded, required, nil
}

// Load resolves and parses the config file, falling back to Default when
// no optional file exists. The result is not validated; callers apply
// flag overrides first and then call Validate.
func (p *Parser) Load(ctx context.Context, explicit string, getenv func(string) string) (*Config, string, error) {
	path, required, err := ResolvePath(explicit, getenv)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		return Default(), "", nil
	}

	cfg, err := p.ParseFile(ctx, path)
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return Default(), "", nil
		}
		return nil, path, err
	}

	return cfg, path, nil
}

// ExpandPaths expands a leading ~ in every filesystem path of the config.
func (c *Config) ExpandPaths() error {
	for _, p := range []*string{&c.BuildRoot, &c.BuildDir, &c.Tool.CacheDir, &c.Tool.Keyring} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("expand %s: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}
