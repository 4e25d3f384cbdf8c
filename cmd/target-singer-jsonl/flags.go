package main

import (
	"fmt"
	"os"
	"slices"
	"strconv"

	"github.com/spf13/cobra"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath  string
	InputPath   string
	LogLevel    string
	LogFormat   string
	MetricsFile string
	Validate    bool
}

// addFlags binds cfg to the flags of cmd, falling back to the environment.
func addFlags(cmd *cobra.Command, cfg *CLIConfig) {
	flags := cmd.Flags()

	flags.StringVarP(&cfg.ConfigPath, "config", "c",
		getEnv("TARGET_JSONL_CONFIG", ""),
		"Path to a JSON or YAML configuration file (env: TARGET_JSONL_CONFIG)")

	flags.StringVarP(&cfg.InputPath, "input", "i",
		getEnv("TARGET_JSONL_INPUT", ""),
		"Read messages from this file instead of stdin (env: TARGET_JSONL_INPUT)")

	flags.StringVar(&cfg.LogLevel, "log-level",
		getEnv("TARGET_JSONL_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: TARGET_JSONL_LOG_LEVEL)")

	flags.StringVar(&cfg.LogFormat, "log-format",
		getEnv("TARGET_JSONL_LOG_FORMAT", "json"),
		"Log format: json, text (env: TARGET_JSONL_LOG_FORMAT)")

	flags.StringVar(&cfg.MetricsFile, "metrics-file", "",
		"Write Prometheus metrics to this textfile on exit, overrides metrics_file")

	flags.BoolVar(&cfg.Validate, "validate",
		getEnvBool("TARGET_JSONL_VALIDATE", false),
		"Validate configuration and exit")
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ConfigPath != "" {
		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
		}
	}

	if cfg.InputPath != "" {
		if _, err := os.Stat(cfg.InputPath); err != nil {
			return fmt.Errorf("input file not found: %s", cfg.InputPath)
		}
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	if !slices.Contains([]string{"json", "text"}, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	return nil
}

const examples = `  # Write a tap's output to ./output
  tap-example | %[1]s --config=config.json

  # Replay a captured run with text logs
  %[1]s --input=run.jsonl --log-level=debug --log-format=text

  # Configure entirely from the environment
  export TARGET_JSONL_DESTINATION=s3
  export TARGET_JSONL_S3_BUCKET=singer-artifacts
  tap-example | %[1]s

  # Validate configuration only
  %[1]s --config=config.yaml --validate`

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
