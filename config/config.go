// Package config loads the optional .animationledrc.toml build
// configuration: default target, default output name, and a codegen
// debug toggle. CLI flags always override values loaded here.
//
// Grounded on lookbusy1344-arm_emulator/config/config.go's toml.Config
// struct pattern, using github.com/BurntSushi/toml as the teacher's
// third-party stack lacks a config loader of its own.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds the subset of build settings a project may pin in
// .animationledrc.toml instead of passing on every invocation.
type Config struct {
	Target string `toml:"target"`
	Output string `toml:"output"`
	Debug  bool   `toml:"debug"`
}

// Default returns the zero-value configuration: no target/output
// override, debug off.
func Default() *Config {
	return &Config{}
}

// Load reads and parses a TOML configuration file at path. A missing file
// is not an error — it returns Default() unchanged, since the file is
// optional.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
