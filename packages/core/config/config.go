package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the stopwatch configuration
type Config struct {
	Host         string  `yaml:"host,omitempty"`
	APIKey       string  `yaml:"apiKey,omitempty"`
	AccountKey   string  `yaml:"accountKey,omitempty"`
	Email        string  `yaml:"email,omitempty"`   // Used to look up the staff ID
	StaffID      string  `yaml:"staffId,omitempty"` // Skips the lookup when set
	QueueDir     string  `yaml:"queueDir,omitempty"`
	Timeout      int     `yaml:"timeout,omitempty"` // milliseconds
	MaxRedirects int     `yaml:"maxRedirects,omitempty"`
	UploadRate   float64 `yaml:"uploadRate,omitempty"` // timesheet uploads per second
	ValidateSSL  *bool   `yaml:"validateSSL,omitempty"`
	Proxy        string  `yaml:"proxy,omitempty"`
	Verbose      *bool   `yaml:"verbose,omitempty"`
	NoColor      *bool   `yaml:"noColor,omitempty"`
}

// BoolPtr returns a pointer to a bool value
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetValidateSSL returns the validate SSL setting, defaulting to true
func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

// GetVerbose returns the verbose setting, defaulting to false
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// TimeoutDuration returns Timeout as a duration
func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// ConfigFilenames contains the possible config file names, in lookup order
var ConfigFilenames = []string{
	".stopwatch.yaml",
	"stopwatch.yaml",
	".stopwatch.json",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	return DefaultConfig(), nil
}

// loadConfigFromFile reads YAML, which also accepts JSON documents
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return config, nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c

	if other.Host != "" {
		result.Host = other.Host
	}
	if other.APIKey != "" {
		result.APIKey = other.APIKey
	}
	if other.AccountKey != "" {
		result.AccountKey = other.AccountKey
	}
	if other.Email != "" {
		result.Email = other.Email
	}
	if other.StaffID != "" {
		result.StaffID = other.StaffID
	}
	if other.QueueDir != "" {
		result.QueueDir = other.QueueDir
	}
	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.UploadRate > 0 {
		result.UploadRate = other.UploadRate
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}

	// Boolean flags - only override if explicitly set in other config
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	return &result
}

// SaveConfig saves the configuration to a file as YAML
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}
