// Package config assembles tool configuration from environment variables and
// an optional project file. Flags parsed in cmd override both.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultHistoryDir is where check looks when no directory is given. It is
// the conventional location extract output is committed to.
const DefaultHistoryDir = "output/parsed_courses"

// ProjectFile is the optional per-repository config file.
const ProjectFile = ".delorean.yaml"

// Config holds all DeLorean configuration.
type Config struct {
	LogLevel string        `yaml:"log_level"`
	Extract  ExtractConfig `yaml:"extract"`
	Check    CheckConfig   `yaml:"check"`
}

// ExtractConfig holds defaults for the extract subcommand.
type ExtractConfig struct {
	PrimaryKey string   `yaml:"primary_key"`
	Include    string   `yaml:"include"`
	Authors    []string `yaml:"authors"`
	IgnoreRevs []string `yaml:"ignore_revs"`
}

// CheckConfig holds defaults for the check subcommand.
type CheckConfig struct {
	Dir       string `yaml:"dir"`
	KeepGoing bool   `yaml:"keep_going"`
}

// Load reads configuration from environment variables, then overlays the
// project file if one exists in the working directory.
func Load() (Config, error) {
	cfg := Config{
		LogLevel: getenv("DELOREAN_LOG_LEVEL", "info"),
		Extract: ExtractConfig{
			PrimaryKey: os.Getenv("DELOREAN_PRIMARY_KEY"),
			Include:    getenv("DELOREAN_INCLUDE", "**/*"),
		},
		Check: CheckConfig{
			Dir: getenv("DELOREAN_HISTORY_DIR", DefaultHistoryDir),
		},
	}
	if err := cfg.applyFile(ProjectFile); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyFile overlays values from a yaml project file. A missing file is not
// an error; a malformed one is.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
	}
	if file.Extract.PrimaryKey != "" {
		c.Extract.PrimaryKey = file.Extract.PrimaryKey
	}
	if file.Extract.Include != "" {
		c.Extract.Include = file.Extract.Include
	}
	if len(file.Extract.Authors) > 0 {
		c.Extract.Authors = file.Extract.Authors
	}
	if len(file.Extract.IgnoreRevs) > 0 {
		c.Extract.IgnoreRevs = file.Extract.IgnoreRevs
	}
	if file.Check.Dir != "" {
		c.Check.Dir = file.Check.Dir
	}
	if file.Check.KeepGoing {
		c.Check.KeepGoing = true
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
