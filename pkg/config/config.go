package config

import (
	"github.com/sdejongh/ddiff/pkg/models"
)

// Text diff strategies
const (
	TextDiffBuiltin  = "builtin"
	TextDiffExternal = "external"
)

// Config represents the application configuration
type Config struct {
	Diff    DiffConfig    `yaml:"diff"`
	MSI     MSIConfig     `yaml:"msi"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
	TempDir string        `yaml:"temp_dir"` // empty = system temp directory
}

// DiffConfig holds comparison settings
type DiffConfig struct {
	BlockSize       int      `yaml:"block_size"`
	Workers         int      `yaml:"workers"`
	TextDiff        string   `yaml:"text_diff"`         // "builtin" or "external"
	TextDiffCommand []string `yaml:"text_diff_command"` // {a} and {b} are replaced by the file paths
}

// MSIConfig holds Windows Installer settings
type MSIConfig struct {
	// PatchCommand applies a patch to an administrative copy of a database.
	// {target} and {patch} are replaced by the paths. Empty disables patch diffs.
	PatchCommand []string `yaml:"patch_command"`
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Format   string `yaml:"format"`   // "human" or "json"
	Progress bool   `yaml:"progress"` // Show a progress counter on terminals
	Quiet    bool   `yaml:"quiet"`    // Suppress the report, keep the exit code
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Format     string `yaml:"format"` // "json" or "text"
	Level      string `yaml:"level"`  // "debug", "info", "warn", "error"
	File       string `yaml:"file"`   // Log file path
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Diff: DiffConfig{
			BlockSize:       512,
			Workers:         1,
			TextDiff:        TextDiffBuiltin,
			TextDiffCommand: []string{"diff", "{a}", "{b}"},
		},
		MSI: MSIConfig{
			PatchCommand: nil,
		},
		Output: OutputConfig{
			Format:   "human",
			Progress: false,
			Quiet:    false,
		},
		Logging: LoggingConfig{
			Enabled:    false,
			Format:     "text",
			Level:      "info",
			File:       "",
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Diff.BlockSize < 1 {
		return &models.ValidationError{
			Field:   "diff.block_size",
			Message: "must be at least 1",
		}
	}

	if c.Diff.Workers < 1 {
		return &models.ValidationError{
			Field:   "diff.workers",
			Message: "must be at least 1",
		}
	}

	switch c.Diff.TextDiff {
	case TextDiffBuiltin:
	case TextDiffExternal:
		if len(c.Diff.TextDiffCommand) == 0 {
			return &models.ValidationError{
				Field:   "diff.text_diff_command",
				Message: "required when text_diff is 'external'",
			}
		}
	default:
		return &models.ValidationError{
			Field:   "diff.text_diff",
			Message: "must be 'builtin' or 'external'",
		}
	}

	validFormats := map[string]bool{"human": true, "json": true}
	if !validFormats[c.Output.Format] {
		return &models.ValidationError{
			Field:   "output.format",
			Message: "must be 'human' or 'json'",
		}
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return &models.ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'text'",
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return &models.ValidationError{
			Field:   "logging.level",
			Message: "must be 'debug', 'info', 'warn', or 'error'",
		}
	}

	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 {
		return &models.ValidationError{
			Field:   "logging.max_size_mb",
			Message: "rotation limits cannot be negative",
		}
	}

	return nil
}
