// ABOUTME: Application configuration from config.yaml, .env and the environment
// ABOUTME: Environment variables override file values; secrets come only from the environment
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/harperreed/ucadmin/cache"
	"github.com/harperreed/ucadmin/workflow"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const appName = "ucadmin"

type Config struct {
	Databricks DatabricksConfig `yaml:"databricks"`
	Cache      CacheConfig      `yaml:"cache"`
	Workflow   WorkflowConfig   `yaml:"workflow"`
	LLM        LLMConfig        `yaml:"llm"`
	Web        WebConfig        `yaml:"web"`

	HistoryPath string `yaml:"history_path" env:"UCADMIN_HISTORY_PATH"`
	LogLevel    string `yaml:"log_level" env:"UCADMIN_LOG_LEVEL" env-default:"info"`
}

type DatabricksConfig struct {
	Host  string `yaml:"host" env:"DATABRICKS_HOST"`
	Token string `yaml:"-" env:"DATABRICKS_TOKEN"` // Secret - not in YAML
}

type CacheConfig struct {
	TTL         time.Duration `yaml:"ttl" env:"CACHE_TTL" env-default:"10m"`
	Deduplicate bool          `yaml:"deduplicate" env:"CACHE_DEDUPLICATE" env-default:"false"`
}

type WorkflowConfig struct {
	HaltOnError bool `yaml:"halt_on_error" env:"WORKFLOW_HALT_ON_ERROR" env-default:"false"`
}

// Policy maps the halt flag to an executor policy.
func (w WorkflowConfig) Policy() workflow.ErrorPolicy {
	if w.HaltOnError {
		return workflow.HaltOnError
	}
	return workflow.ContinueOnError
}

type LLMConfig struct {
	Endpoint      string `yaml:"endpoint" env:"OPENAI_BASE_URL"`
	Model         string `yaml:"model" env:"OPENAI_MODEL" env-default:"gpt-4.1-nano"`
	APIKey        string `yaml:"-" env:"OPENAI_API_KEY"` // Secret - not in YAML
	MaxIterations int    `yaml:"max_iterations" env:"AGENT_MAX_ITERATIONS" env-default:"5"`
}

// IsAvailable reports whether an LLM can be called.
func (l LLMConfig) IsAvailable() bool {
	return l.APIKey != ""
}

type WebConfig struct {
	Addr string `yaml:"addr" env:"UCADMIN_WEB_ADDR" env-default:"127.0.0.1:8080"`
}

// DefaultPath is config.yaml under the XDG config directory.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// DefaultHistoryPath is the run-history database under the XDG data directory.
func DefaultHistoryPath() string {
	return filepath.Join(xdg.DataHome, appName, "history.db")
}

// Load reads .env from the working directory, then the config file at path
// (DefaultPath when empty), then the environment. A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	if path == "" {
		path = DefaultPath()
	}

	cfg := &Config{}
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if cfg.HistoryPath == "" {
		cfg.HistoryPath = DefaultHistoryPath()
	}
	if cfg.Cache.TTL <= 0 {
		cfg.Cache.TTL = cache.DefaultTTL
	}
	return cfg, nil
}

// Validate checks that the workspace can be reached. There is no retry; a
// missing credential fails startup.
func (c *Config) Validate() error {
	if c.Databricks.Host == "" {
		return fmt.Errorf("DATABRICKS_HOST is required")
	}
	if c.Databricks.Token == "" {
		return fmt.Errorf("DATABRICKS_TOKEN is required")
	}
	if c.LLM.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive")
	}
	return nil
}
