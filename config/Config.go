package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/reaandrew/secscanner/clients"
	"github.com/reaandrew/secscanner/repositories"
	"github.com/reaandrew/secscanner/utils"
	"gopkg.in/yaml.v3"
)

const (
	DefaultHistoryDir = "~/.secscanner"
	DefaultLogFile    = "secscanner.log"
	DefaultLogLevel   = "info"
	DefaultServerAddr = "127.0.0.1:8080"
	DefaultGitlabURL  = "https://gitlab.com/api/v4"
	DefaultReportFmt  = "console"
	DefaultReportDir  = "."
	DefaultConfigFile = "secscanner.yaml"
)

type Config struct {
	Endpoint      EndpointConfig      `yaml:"endpoint" toml:"endpoint"`
	History       HistoryConfig       `yaml:"history" toml:"history"`
	Github        GithubConfig        `yaml:"github" toml:"github"`
	Gitlab        GitlabConfig        `yaml:"gitlab" toml:"gitlab"`
	Notifications NotificationsConfig `yaml:"notifications" toml:"notifications"`
	Logging       LoggingConfig       `yaml:"logging" toml:"logging"`
	Server        ServerConfig        `yaml:"server" toml:"server"`
	Report        ReportConfig        `yaml:"report" toml:"report"`
}

type EndpointConfig struct {
	URL               string `yaml:"url" toml:"url"`
	Path              string `yaml:"path" toml:"path"`
	Token             string `yaml:"token" toml:"token"`
	TokenSSMParameter string `yaml:"token_ssm_parameter" toml:"token_ssm_parameter"`
}

type HistoryConfig struct {
	Backend string `yaml:"backend" toml:"backend"`
	Path    string `yaml:"path" toml:"path"`
	Key     string `yaml:"key" toml:"key"`
}

type GithubConfig struct {
	Token string `yaml:"token" toml:"token"`
	// BaseURL points at a GitHub Enterprise server; empty means github.com.
	BaseURL string `yaml:"base_url" toml:"base_url"`
}

type GitlabConfig struct {
	Token   string `yaml:"token" toml:"token"`
	BaseURL string `yaml:"base_url" toml:"base_url"`
	NoCache bool   `yaml:"no_cache" toml:"no_cache"`
}

type NotificationsConfig struct {
	WebhookURL     string            `yaml:"webhook_url" toml:"webhook_url"`
	WebhookHeaders map[string]string `yaml:"webhook_headers" toml:"webhook_headers"`
}

type LoggingConfig struct {
	Level string `yaml:"level" toml:"level"`
	File  string `yaml:"file" toml:"file"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" toml:"addr"`
}

type ReportConfig struct {
	Format    string `yaml:"format" toml:"format"`
	OutputDir string `yaml:"output_dir" toml:"output_dir"`
}

func Default() Config {
	return Config{
		Endpoint: EndpointConfig{Path: clients.DefaultScanPath},
		History: HistoryConfig{
			Backend: repositories.BackendFile,
			Key:     repositories.DefaultHistoryKey,
		},
		Gitlab:  GitlabConfig{BaseURL: DefaultGitlabURL},
		Logging: LoggingConfig{Level: DefaultLogLevel, File: DefaultLogFile},
		Server:  ServerConfig{Addr: DefaultServerAddr},
		Report:  ReportConfig{Format: DefaultReportFmt, OutputDir: DefaultReportDir},
	}
}

// LookupEnv matches os.LookupEnv so tests can supply their own environment.
type LookupEnv func(key string) (string, bool)

// Load reads path over the defaults and then applies environment overrides.
// An empty path skips the file; a missing explicit file is an error.
func Load(path string) (Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

func LoadWithEnv(path string, lookup LookupEnv) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
		if err := decode(path, data, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnv(lookup)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("failed to parse TOML config '%s': %w", path, err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse YAML config '%s': %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup LookupEnv) {
	overrides := []struct {
		key    string
		target *string
	}{
		{"SECSCANNER_ENDPOINT", &c.Endpoint.URL},
		{"SECSCANNER_TOKEN", &c.Endpoint.Token},
		{"SECSCANNER_HISTORY_BACKEND", &c.History.Backend},
		{"SECSCANNER_HISTORY_PATH", &c.History.Path},
		{"GITHUB_TOKEN", &c.Github.Token},
		{"GITHUB_API_URL", &c.Github.BaseURL},
		{"GITLAB_TOKEN", &c.Gitlab.Token},
	}
	for _, o := range overrides {
		if value, ok := lookup(o.key); ok && value != "" {
			*o.target = value
		}
	}
}

func (c Config) Validate() error {
	switch c.History.Backend {
	case repositories.BackendFile, repositories.BackendBolt, repositories.BackendSqlite:
	default:
		return fmt.Errorf("unknown history backend: %s", c.History.Backend)
	}
	if c.History.Key == "" {
		return fmt.Errorf("history key must not be empty")
	}
	return nil
}

// HistoryPath is the expanded storage location, defaulted per backend.
func (c Config) HistoryPath() (string, error) {
	path := c.History.Path
	if path == "" {
		switch c.History.Backend {
		case repositories.BackendBolt:
			path = filepath.Join(DefaultHistoryDir, "history.db")
		case repositories.BackendSqlite:
			path = filepath.Join(DefaultHistoryDir, "history.sqlite")
		default:
			path = filepath.Join(DefaultHistoryDir, "history.json")
		}
	}
	return utils.ExpandHome(path)
}
