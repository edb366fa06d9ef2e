package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/kestrelworks/swarm/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify swarm configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/swarm/config.yaml
Project-specific overrides can be placed in .swarm.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	apiKeyDisplay := "(not set)"
	if cfg.LLM.APIKey != "" {
		apiKeyDisplay = "****"
	}

	fmt.Printf("llm.backend: %s\n", cfg.LLM.Backend)
	fmt.Printf("llm.model: %s\n", cfg.LLM.Model)
	fmt.Printf("llm.api_key: %s\n", apiKeyDisplay)
	fmt.Printf("llm.base_url: %s\n", cfg.LLM.BaseURL)
	fmt.Printf("llm.timeout: %s\n", cfg.LLM.Timeout)
	fmt.Printf("llm.use_aws_bedrock: %t\n", cfg.LLM.UseAWSBedrock)
	fmt.Printf("pool.max_workers: %d\n", cfg.Pool.MaxWorkers)
	fmt.Printf("pool.warmup_timeout: %s\n", cfg.Pool.WarmupTimeout)
	fmt.Printf("pool.grace_period: %s\n", cfg.Pool.GracePeriod)
	fmt.Printf("pool.activity_timeout: %s\n", cfg.Pool.ActivityTimeout)
	fmt.Printf("history.path: %s\n", cfg.History.Path)
	fmt.Printf("spool.dir: %s\n", cfg.Spool.Dir)
	fmt.Printf("tui.refresh_rate: %s\n", cfg.TUI.RefreshRate)
	fmt.Printf("agents: %d configured\n", len(cfg.Agents))
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	switch key {
	case "llm.backend":
		fmt.Println(cfg.LLM.Backend)
	case "llm.model":
		fmt.Println(cfg.LLM.Model)
	case "llm.base_url":
		fmt.Println(cfg.LLM.BaseURL)
	case "llm.timeout":
		fmt.Println(cfg.LLM.Timeout)
	case "pool.max_workers":
		fmt.Println(cfg.Pool.MaxWorkers)
	case "pool.warmup_timeout":
		fmt.Println(cfg.Pool.WarmupTimeout)
	case "pool.grace_period":
		fmt.Println(cfg.Pool.GracePeriod)
	case "pool.activity_timeout":
		fmt.Println(cfg.Pool.ActivityTimeout)
	case "history.path":
		fmt.Println(cfg.History.Path)
	case "spool.dir":
		fmt.Println(cfg.Spool.Dir)
	case "tui.refresh_rate":
		fmt.Println(cfg.TUI.RefreshRate)
	default:
		fmt.Fprintf(os.Stderr, "Unknown configuration key: %s\n", key)
		os.Exit(1)
	}
}

// setConfigKey updates a single configuration value and saves it.
func setConfigKey(cfg *config.Config, key, value string) {
	var err error
	switch key {
	case "llm.backend":
		cfg.LLM.Backend = value
	case "llm.model":
		cfg.LLM.Model = value
	case "llm.api_key":
		cfg.LLM.APIKey = value
	case "llm.base_url":
		cfg.LLM.BaseURL = value
	case "llm.timeout":
		cfg.LLM.Timeout, err = time.ParseDuration(value)
	case "pool.max_workers":
		cfg.Pool.MaxWorkers, err = strconv.Atoi(value)
	case "pool.warmup_timeout":
		cfg.Pool.WarmupTimeout, err = time.ParseDuration(value)
	case "pool.grace_period":
		cfg.Pool.GracePeriod, err = time.ParseDuration(value)
	case "pool.activity_timeout":
		cfg.Pool.ActivityTimeout, err = time.ParseDuration(value)
	case "history.path":
		cfg.History.Path = value
	case "spool.dir":
		cfg.Spool.Dir = value
	case "tui.refresh_rate":
		cfg.TUI.RefreshRate, err = time.ParseDuration(value)
	default:
		fmt.Fprintf(os.Stderr, "Unknown configuration key: %s\n", key)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid value for %s: %v\n", key, err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Set %s = %s\n", key, value)
}
