// Package config loads jobman's configuration file and derives the storage
// layout from it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jobman-sh/jobman/internal/errs"
)

const (
	// ConfigHomeEnv overrides the directory containing config.yml.
	ConfigHomeEnv = "JOBMAN_CONFIG_HOME"

	defaultConfigDir   = "~/.config/jobman"
	defaultStoragePath = "~/.local/share/jobman"
	defaultGCExpiry    = 7 // days
)

// SinkSpec describes one notification sink the callback strings in a job's
// notify lists can name.
type SinkSpec struct {
	// Name is the identifier used in --notify-on-* values.
	Name string `yaml:"name"`

	// Type selects the delivery mechanism: "command" or "file".
	Type string `yaml:"type"`

	// Target is the shell command to run or the file to append to.
	Target string `yaml:"target"`
}

// Config is the parsed configuration file plus the derived storage layout.
type Config struct {
	StoragePath  string     `yaml:"storage_path"`
	GCExpiryDays int        `yaml:"gc_expiry_days"`
	Sinks        []SinkSpec `yaml:"notification_sinks"`

	// Derived paths, not part of the file.
	DBPath    string `yaml:"-"`
	StdioPath string `yaml:"-"`
	LogPath   string `yaml:"-"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{
		StoragePath:  defaultStoragePath,
		GCExpiryDays: defaultGCExpiry,
	}
	cfg.derivePaths()
	return cfg
}

// Dir returns the directory searched for config.yml, honoring
// JOBMAN_CONFIG_HOME.
func Dir() string {
	if dir := os.Getenv(ConfigHomeEnv); dir != "" {
		return expandHome(dir)
	}
	return expandHome(defaultConfigDir)
}

// Load reads config.yml from Dir(). A missing file yields the defaults;
// unknown keys and malformed yaml are config errors.
func Load() (*Config, error) {
	return loadFile(filepath.Join(Dir(), "config.yml"))
}

func loadFile(path string) (*Config, error) {
	cfg := &Config{
		StoragePath:  defaultStoragePath,
		GCExpiryDays: defaultGCExpiry,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.derivePaths()
			return cfg, nil
		}
		return nil, errs.Wrap(errs.CodeConfig, err, "failed to read config file %s", path)
	}

	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, errs.Wrap(errs.CodeConfig, err, "invalid config file at %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.derivePaths()
	return cfg, nil
}

// Validate checks field-level constraints.
func (c *Config) Validate() error {
	if c.StoragePath == "" {
		return errs.New(errs.CodeConfig, "storage_path must not be empty")
	}
	if c.GCExpiryDays < 0 {
		return errs.New(errs.CodeConfig, "gc_expiry_days must be non-negative, got %d", c.GCExpiryDays)
	}
	for _, s := range c.Sinks {
		if s.Name == "" {
			return errs.New(errs.CodeConfig, "notification sink missing name")
		}
		switch s.Type {
		case "command", "file":
		default:
			return errs.New(errs.CodeConfig, "notification sink %q has unsupported type %q", s.Name, s.Type)
		}
		if s.Target == "" {
			return errs.New(errs.CodeConfig, "notification sink %q missing target", s.Name)
		}
	}
	return nil
}

// GCExpiry returns the log GC horizon as a duration.
func (c *Config) GCExpiry() time.Duration {
	return time.Duration(c.GCExpiryDays) * 24 * time.Hour
}

func (c *Config) derivePaths() {
	c.StoragePath = expandHome(c.StoragePath)
	c.DBPath = filepath.Join(c.StoragePath, "db")
	c.StdioPath = filepath.Join(c.StoragePath, "stdio")
	c.LogPath = filepath.Join(c.StoragePath, "log")
}

// RunLogDir returns the stdio directory for one run.
func (c *Config) RunLogDir(jobID string, attempt int) string {
	return filepath.Join(c.StdioPath, jobID, fmt.Sprintf("%d", attempt))
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
