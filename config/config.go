// Package config loads the piwatch configuration.
//
// Settings come from a global YAML file in the user config directory with
// an optional local .piwatch.yaml merged on top. Credentials are never
// stored in the file; tokens are read from the environment only.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when a value is absent from every config file.
const (
	DefaultPollIntervalSeconds = 60
	DefaultProject             = "Production Issues"
	DefaultImpactField         = "customfield_12195"
	DefaultMaxResults          = 1000
	DefaultTimeoutSeconds      = 30
	DefaultGraphBaseURL        = "https://graph.microsoft.com/v1.0"
)

// Config is the application configuration.
type Config struct {
	// PollInterval is the driver loop sleep between cycles, in seconds.
	PollInterval int `yaml:"poll_interval,omitempty"`

	// LedgerPath overrides the default ledger database location.
	LedgerPath string `yaml:"ledger_path,omitempty"`

	Jira  JiraConfig  `yaml:"jira"`
	Teams TeamsConfig `yaml:"teams"`
}

// JiraConfig configures the ticket source.
type JiraConfig struct {
	BaseURL     string `yaml:"base_url,omitempty"`
	Project     string `yaml:"project,omitempty"`
	ImpactField string `yaml:"impact_field,omitempty"`
	MaxResults  int    `yaml:"max_results,omitempty"`
	Timeout     int    `yaml:"timeout,omitempty"` // seconds
}

// TeamsConfig configures the notification channel.
type TeamsConfig struct {
	BaseURL   string `yaml:"base_url,omitempty"`
	TeamID    string `yaml:"team_id,omitempty"`
	ChannelID string `yaml:"channel_id,omitempty"`
	Timeout   int    `yaml:"timeout,omitempty"` // seconds
}

// DefaultConfigDir returns the default config directory.
func DefaultConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".piwatch"
	}
	return filepath.Join(configDir, "piwatch")
}

// ConfigPath returns the path to the global config file.
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LocalConfigPath returns the path to the local config file in the
// current directory.
func LocalConfigPath() string {
	return ".piwatch.yaml"
}

// DefaultLedgerPath returns the default ledger database location.
func DefaultLedgerPath() string {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".piwatch", "ledger.db")
	}
	return filepath.Join(cacheDir, "piwatch", "ledger.db")
}

// Load reads the global config (if present) and merges the local
// .piwatch.yaml (if present) on top, local values taking precedence.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath(), LocalConfigPath())
}

// LoadFrom is Load with explicit paths, for tests.
func LoadFrom(globalPath, localPath string) (*Config, error) {
	cfg := &Config{}

	if err := readInto(globalPath, cfg); err != nil {
		return nil, err
	}

	if _, err := os.Stat(localPath); err == nil {
		var local Config
		if err := readInto(localPath, &local); err != nil {
			return nil, err
		}
		cfg = merge(cfg, &local)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func readInto(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// merge overlays local on top of global; unset local values preserve
// global values.
func merge(global, local *Config) *Config {
	result := *global
	if local.PollInterval != 0 {
		result.PollInterval = local.PollInterval
	}
	if local.LedgerPath != "" {
		result.LedgerPath = local.LedgerPath
	}
	if local.Jira.BaseURL != "" {
		result.Jira.BaseURL = local.Jira.BaseURL
	}
	if local.Jira.Project != "" {
		result.Jira.Project = local.Jira.Project
	}
	if local.Jira.ImpactField != "" {
		result.Jira.ImpactField = local.Jira.ImpactField
	}
	if local.Jira.MaxResults != 0 {
		result.Jira.MaxResults = local.Jira.MaxResults
	}
	if local.Jira.Timeout != 0 {
		result.Jira.Timeout = local.Jira.Timeout
	}
	if local.Teams.BaseURL != "" {
		result.Teams.BaseURL = local.Teams.BaseURL
	}
	if local.Teams.TeamID != "" {
		result.Teams.TeamID = local.Teams.TeamID
	}
	if local.Teams.ChannelID != "" {
		result.Teams.ChannelID = local.Teams.ChannelID
	}
	if local.Teams.Timeout != 0 {
		result.Teams.Timeout = local.Teams.Timeout
	}
	return &result
}

func (c *Config) applyDefaults() {
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollIntervalSeconds
	}
	if c.LedgerPath == "" {
		c.LedgerPath = DefaultLedgerPath()
	}
	if c.Jira.Project == "" {
		c.Jira.Project = DefaultProject
	}
	if c.Jira.ImpactField == "" {
		c.Jira.ImpactField = DefaultImpactField
	}
	if c.Jira.MaxResults == 0 {
		c.Jira.MaxResults = DefaultMaxResults
	}
	if c.Jira.Timeout == 0 {
		c.Jira.Timeout = DefaultTimeoutSeconds
	}
	if c.Teams.BaseURL == "" {
		c.Teams.BaseURL = DefaultGraphBaseURL
	}
	if c.Teams.Timeout == 0 {
		c.Teams.Timeout = DefaultTimeoutSeconds
	}
}

// Interval returns the poll interval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.PollInterval) * time.Second
}

// GetJiraToken returns the JIRA token from the JIRA_TOKEN environment
// variable. Following 12-factor practice, tokens are only read from the
// environment.
func (c *Config) GetJiraToken() string {
	return os.Getenv("JIRA_TOKEN")
}

// GetTeamsToken returns the Graph API token from the TEAMS_TOKEN
// environment variable.
func (c *Config) GetTeamsToken() string {
	return os.Getenv("TEAMS_TOKEN")
}

// ToYAML returns the config as a YAML string.
func (c *Config) ToYAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

// MinimalConfig returns a starter config file template.
func MinimalConfig() string {
	return `# piwatch configuration file

# Seconds between poll cycles
poll_interval: 60

jira:
  base_url: https://jira.example.com
  project: Production Issues
  # Custom field holding the impact value
  impact_field: customfield_12195

teams:
  team_id: ""
  channel_id: ""

# Tokens are read from the environment: JIRA_TOKEN, TEAMS_TOKEN
`
}

// SaveTo writes content to path, creating directories as needed.
func SaveTo(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	return nil
}
