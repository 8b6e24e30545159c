// Package config provides YAML-based configuration loading for switchyard.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zulandar/switchyard/internal/workflow"
	"gopkg.in/yaml.v3"
)

// Config is the top-level switchyard configuration, loaded from switchyard.yaml.
type Config struct {
	Database  DatabaseConfig               `yaml:"database"`
	Repair    RepairConfig                 `yaml:"repair"`
	Dashboard DashboardConfig              `yaml:"dashboard"`
	Notify    NotifyConfig                 `yaml:"notify"`
	GitHub    GitHubConfig                 `yaml:"github"`
	Templates map[string][]workflow.Column `yaml:"templates"`
}

// DatabaseConfig selects and locates the backing store.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite or mysql
	Path   string `yaml:"path"`   // sqlite file
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Name   string `yaml:"name"`
	User   string `yaml:"user"`
}

// RepairConfig controls the drift repair pass.
type RepairConfig struct {
	OnStart  *bool  `yaml:"on_start"`
	Schedule string `yaml:"schedule"` // 5-field cron, empty disables
	Workers  int    `yaml:"workers"`
}

// DashboardConfig holds the HTTP API settings.
type DashboardConfig struct {
	Port int `yaml:"port"`
}

// NotifyConfig holds chat webhook targets for repair and reconcile reports.
type NotifyConfig struct {
	SlackWebhookURL     string `yaml:"slack_webhook_url"`
	DiscordWebhookID    string `yaml:"discord_webhook_id"`
	DiscordWebhookToken string `yaml:"discord_webhook_token"`
}

// GitHubConfig identifies the repository used for issue state pushes.
type GitHubConfig struct {
	Owner    string `yaml:"owner"`
	Repo     string `yaml:"repo"`
	TokenEnv string `yaml:"token_env"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// RepairOnStart reports whether the repair pass should run when the store opens.
func (c *Config) RepairOnStart() bool {
	return c.Repair.OnStart == nil || *c.Repair.OnStart
}

// GitHubToken returns the token read from the configured environment variable.
func (c *Config) GitHubToken() string {
	return os.Getenv(c.GitHub.TokenEnv)
}

// Template returns the normalized columns of a named template.
func (c *Config) Template(name string) ([]workflow.Column, error) {
	cols, ok := c.Templates[name]
	if !ok {
		return nil, fmt.Errorf("config: unknown template %q", name)
	}
	return workflow.ValidateColumns(cols)
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "~/.switchyard/switchyard.db"
	}
	c.Database.Path = expandHome(c.Database.Path)
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.Name == "" {
		c.Database.Name = "switchyard"
	}
	if c.Database.User == "" {
		c.Database.User = "root"
	}
	if c.Repair.Workers == 0 {
		c.Repair.Workers = 1
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8080
	}
	if c.GitHub.TokenEnv == "" {
		c.GitHub.TokenEnv = "GITHUB_TOKEN"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (sqlite, mysql)", c.Database.Driver))
	}
	if c.Database.Port < 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port %d is out of range", c.Database.Port))
	}
	if c.Repair.Workers < 0 {
		errs = append(errs, "repair.workers must not be negative")
	}
	if (c.Notify.DiscordWebhookID == "") != (c.Notify.DiscordWebhookToken == "") {
		errs = append(errs, "notify.discord_webhook_id and notify.discord_webhook_token must be set together")
	}

	names := make([]string, 0, len(c.Templates))
	for name := range c.Templates {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := workflow.ValidateColumns(c.Templates[name]); err != nil {
			errs = append(errs, fmt.Sprintf("templates.%s: %v", name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
