package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

const (
	fileName = "meshtool.yaml"

	// EnvConfig names a config file, consulted when -config is not given.
	EnvConfig = "MESHTOOL_CONFIG"
)

// Source says where the loaded config file came from.
type Source int

const (
	SourceNone Source = iota // built-in defaults only
	SourceFlag
	SourceEnv
	SourceWorkDir
	SourceConfigDir
)

func (s Source) String() string {
	switch s {
	case SourceNone:
		return "defaults"
	case SourceFlag:
		return "-config flag"
	case SourceEnv:
		return EnvConfig
	case SourceWorkDir:
		return "working directory"
	case SourceConfigDir:
		return "config directory"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Load builds the config: defaults, then the located file, then flags.
func Load() (*Config, error) {
	cfg := Default()

	path, _ := Locate()
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	applyFlags(cfg)

	return cfg, nil
}

// Locate picks the config file to read. An explicit -config path or
// MESHTOOL_CONFIG value is returned even if the file is missing, so the
// caller reports it instead of silently falling back to defaults. The
// search locations are only used when they exist.
func Locate() (string, Source) {
	if p := ConfigPath(); p != "" {
		return p, SourceFlag
	}
	if p := os.Getenv(EnvConfig); p != "" {
		return p, SourceEnv
	}

	searched := []struct {
		path   string
		source Source
	}{
		{filepath.Join(".", fileName), SourceWorkDir},
		{DefaultPath(), SourceConfigDir},
	}
	for _, c := range searched {
		if info, err := os.Stat(c.path); err == nil && !info.IsDir() {
			return c.path, c.source
		}
	}
	return "", SourceNone
}

// DefaultPath is where Save writes and the last place Locate looks.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), fileName)
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "meshtool")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "meshtool")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "meshtool")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "meshtool")
	}
}

// loadFromFile merges a YAML file over the values already in cfg.
// Unknown keys are rejected so a misspelt setting does not go unnoticed.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
