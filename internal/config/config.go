// Package config handles configuration loading for swarm.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for swarm.
type Config struct {
	LLM     LLMConfig     `mapstructure:"llm"`
	Pool    PoolConfig    `mapstructure:"pool"`
	History HistoryConfig `mapstructure:"history"`
	Spool   SpoolConfig   `mapstructure:"spool"`
	TUI     TUIConfig     `mapstructure:"tui"`
	Agents  []AgentSpec   `mapstructure:"agents"`
}

// LLMConfig holds LLM backend settings.
type LLMConfig struct {
	// Backend is "ollama" or "anthropic".
	Backend string `mapstructure:"backend"`
	// Model is the default model name for the backend.
	Model string `mapstructure:"model"`
	// APIKey is the Anthropic API key.
	APIKey string `mapstructure:"api_key"`
	// BaseURL is the Ollama server address.
	BaseURL string `mapstructure:"base_url"`
	// Timeout bounds each model call.
	Timeout time.Duration `mapstructure:"timeout"`
	// UseAWSBedrock routes the anthropic backend through Bedrock.
	UseAWSBedrock bool `mapstructure:"use_aws_bedrock"`
	// AWSRegion is the Bedrock region.
	AWSRegion string `mapstructure:"aws_region"`
	// AWSProfile is the optional AWS profile name.
	AWSProfile string `mapstructure:"aws_profile"`
}

// PoolConfig holds worker pool settings.
type PoolConfig struct {
	// MaxWorkers caps concurrent worker registrations.
	MaxWorkers int `mapstructure:"max_workers"`
	// WarmupTimeout bounds the wait for a new worker to report ready.
	WarmupTimeout time.Duration `mapstructure:"warmup_timeout"`
	// GracePeriod is how long shutdown waits before terminating a worker.
	GracePeriod time.Duration `mapstructure:"grace_period"`
	// ActivityTimeout marks a silent worker unresponsive in health checks.
	ActivityTimeout time.Duration `mapstructure:"activity_timeout"`
}

// HistoryConfig holds result log settings.
type HistoryConfig struct {
	// Path is the SQLite database file. Empty means the XDG default.
	Path string `mapstructure:"path"`
}

// SpoolConfig holds task spool directory settings.
type SpoolConfig struct {
	// Dir is the directory watched for incoming task files. Empty
	// disables the watcher.
	Dir string `mapstructure:"dir"`
}

// TUIConfig holds TUI display settings.
type TUIConfig struct {
	RefreshRate time.Duration `mapstructure:"refresh_rate"`
}

// AgentSpec describes one agent entry in the manifest.
type AgentSpec struct {
	Name         string   `mapstructure:"name"`
	Type         string   `mapstructure:"type"`
	Capabilities []string `mapstructure:"capabilities"`
	Model        string   `mapstructure:"model"`
	Count        int      `mapstructure:"count"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, SWARM_LLM_BACKEND, ...)
// 2. Project config (.swarm.yaml in current directory or parent)
// 3. User config (~/.config/swarm/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Project config takes precedence over user config.
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()

	v.BindEnv("llm.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("llm.backend", "SWARM_LLM_BACKEND")
	v.BindEnv("llm.model", "SWARM_LLM_MODEL")
	v.BindEnv("llm.base_url", "OLLAMA_HOST")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.LLM.APIKey = expandEnv(cfg.LLM.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.LLM.APIKey = expandEnv(cfg.LLM.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("llm.backend", cfg.LLM.Backend)
	v.Set("llm.model", cfg.LLM.Model)
	v.Set("llm.api_key", cfg.LLM.APIKey)
	v.Set("llm.base_url", cfg.LLM.BaseURL)
	v.Set("llm.timeout", cfg.LLM.Timeout.String())
	v.Set("llm.use_aws_bedrock", cfg.LLM.UseAWSBedrock)
	v.Set("llm.aws_region", cfg.LLM.AWSRegion)
	v.Set("llm.aws_profile", cfg.LLM.AWSProfile)
	v.Set("pool.max_workers", cfg.Pool.MaxWorkers)
	v.Set("pool.warmup_timeout", cfg.Pool.WarmupTimeout.String())
	v.Set("pool.grace_period", cfg.Pool.GracePeriod.String())
	v.Set("pool.activity_timeout", cfg.Pool.ActivityTimeout.String())
	v.Set("history.path", cfg.History.Path)
	v.Set("spool.dir", cfg.Spool.Dir)
	v.Set("tui.refresh_rate", cfg.TUI.RefreshRate.String())

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.backend", "ollama")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", "30s")
	v.SetDefault("llm.use_aws_bedrock", false)

	v.SetDefault("pool.max_workers", 8)
	v.SetDefault("pool.warmup_timeout", "5s")
	v.SetDefault("pool.grace_period", "5s")
	v.SetDefault("pool.activity_timeout", "2m")

	v.SetDefault("history.path", "")
	v.SetDefault("spool.dir", "")

	v.SetDefault("tui.refresh_rate", "250ms")
}

// getUserConfigDir returns the XDG config directory for swarm.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "swarm")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "swarm")
	}
	return filepath.Join(home, ".config", "swarm")
}

// findProjectConfig searches for .swarm.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".swarm.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Backend: "ollama",
			Timeout: 30 * time.Second,
		},
		Pool: PoolConfig{
			MaxWorkers:      8,
			WarmupTimeout:   5 * time.Second,
			GracePeriod:     5 * time.Second,
			ActivityTimeout: 2 * time.Minute,
		},
		TUI: TUIConfig{
			RefreshRate: 250 * time.Millisecond,
		},
	}
}

// DefaultAgents returns the agent manifest used when the configuration
// declares none: one generalist coder, one debugger, one file manager.
func DefaultAgents() []AgentSpec {
	return []AgentSpec{
		{Name: "coder", Type: "codegen", Capabilities: []string{"code_generation", "code_refactoring", "code_analysis"}, Count: 2},
		{Name: "debugger", Type: "debug", Capabilities: []string{"debugging", "code_analysis"}, Count: 1},
		{Name: "files", Type: "fileop", Capabilities: []string{"file_management"}, Count: 1},
	}
}
