// Package config handles meshtool configuration loading and management.
package config

import "time"

// Config holds all meshtool settings.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Export  ExportConfig  `yaml:"export"`
	Upgrade UpgradeConfig `yaml:"upgrade"`
	Watch   WatchConfig   `yaml:"watch"`
	Sphere  SphereConfig  `yaml:"sphere"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// ExportConfig holds glTF export settings.
type ExportConfig struct {
	Binary bool   `yaml:"binary"`  // write .glb instead of .gltf
	OutDir string `yaml:"out_dir"` // empty: next to the input file
}

// UpgradeConfig controls how files are rewritten as the current revision.
type UpgradeConfig struct {
	Backup       bool   `yaml:"backup"`
	BackupSuffix string `yaml:"backup_suffix"`
}

// WatchConfig holds directory watcher settings.
type WatchConfig struct {
	Dirs       []string      `yaml:"dirs"`
	Extensions []string      `yaml:"extensions"`
	Recursive  bool          `yaml:"recursive"`
	Debounce   time.Duration `yaml:"debounce"`
}

// SphereConfig holds defaults for generated spheres.
type SphereConfig struct {
	Subdivisions int     `yaml:"subdivisions"`
	Radius       float32 `yaml:"radius"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Export: ExportConfig{
			Binary: true,
			OutDir: "",
		},
		Upgrade: UpgradeConfig{
			Backup:       true,
			BackupSuffix: ".v1.bak",
		},
		Watch: WatchConfig{
			Dirs:       []string{"."},
			Extensions: []string{".3d"},
			Recursive:  true,
			Debounce:   250 * time.Millisecond,
		},
		Sphere: SphereConfig{
			Subdivisions: 16,
			Radius:       1.0,
		},
	}
}
