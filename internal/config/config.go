// Package config loads the optional colek configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the optional colek configuration file.
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
	Theme    ThemeConfig    `toml:"theme"`
}

// DefaultsConfig holds flag defaults. Nil means "not set"; flags given on
// the command line always win.
type DefaultsConfig struct {
	Filter    *[]string `toml:"filter"`
	Workers   *int      `toml:"workers"`
	Exclude   *[]string `toml:"exclude"`
	Duplicate *string   `toml:"duplicate"`
	Verify    *bool     `toml:"verify"`
	Algo      *string   `toml:"algo"`
	Level     *int      `toml:"level"`
	Zstd      *bool     `toml:"zstd"`
	BWLimit   *string   `toml:"bwlimit"`
}

// ThemeConfig holds optional color overrides for terminal output.
type ThemeConfig struct {
	Green  *string `toml:"green"`
	Yellow *string `toml:"yellow"`
	Red    *string `toml:"red"`
	Muted  *string `toml:"muted"`
	Bright *string `toml:"bright"`
}

// Path returns the resolved path to the config file.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "colek", "config.toml")
}

// Load reads the config file from the XDG path. A missing file yields a
// zero Config and no error.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return Config{}, nil
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. Unknown keys are rejected so typos
// do not silently fall back to defaults.
func LoadFile(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}
