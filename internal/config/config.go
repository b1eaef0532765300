// Package config handles gmldc.toml configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "gmldc.toml"

// Config represents a gmldc.toml file.
type Config struct {
	Log       Log       `toml:"log"`
	Decompile Decompile `toml:"decompile"`
	Render    Render    `toml:"render"`
	Output    Output    `toml:"output"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

// Log configures the logger.
type Log struct {
	Level string `toml:"level"`
	// JSON switches from the console writer to JSON lines.
	JSON bool `toml:"json"`
}

// Decompile configures the decompiler.
type Decompile struct {
	// Mode is "strict" or "best-effort".
	Mode string `toml:"mode"`
	// Resolvers restricts the resolver set by name. Empty means all.
	Resolvers []string `toml:"resolvers"`
	// Trace logs every CFG edge at trace level.
	Trace bool `toml:"trace"`
}

// Render configures DOT output.
type Render struct {
	Theme string `toml:"theme"`
	// Instructions renders the instruction-level CFG instead of blocks.
	Instructions bool `toml:"instructions"`
}

// Output configures where results go.
type Output struct {
	Dir string `toml:"dir"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Decompile.Mode == "" {
		c.Decompile.Mode = "strict"
	}
	if c.Render.Theme == "" {
		c.Render.Theme = "nasa"
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "out"
	}
}

// Load parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: cannot read %s: %w", path, err)
	}

	var c Config
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return nil, fmt.Errorf("config: parse error in %s: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return nil, fmt.Errorf("config: %s: unknown key %s", path, undec[0])
	}

	c.Path, err = filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: cannot resolve path %s: %w", path, err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &c, nil
}

// LoadOrDefault loads path, or returns defaults when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	c, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return c, err
}

// Validate checks values that have a fixed vocabulary.
func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Decompile.Mode {
	case "strict", "best-effort":
	default:
		return fmt.Errorf("decompile.mode: %q is not strict or best-effort", c.Decompile.Mode)
	}
	return nil
}

// Level returns the configured log level.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
