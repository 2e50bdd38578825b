package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"time"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath   string
	Scenario     string
	LogLevel     string
	LogFormat    string
	MetricsPort  int
	Linger       time.Duration
	ListScenario bool
	ShowVersion  bool
	ShowHelp     bool
	Validate     bool
}

func parseFlags(args []string) (*CLIConfig, *flag.FlagSet, error) {
	cfg := &CLIConfig{}
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)

	fs.StringVar(&cfg.ConfigPath, "config",
		getEnv("BOUNDEDBUF_CONFIG", ""),
		"Path to a JSON or YAML workload file (env: BOUNDEDBUF_CONFIG)")
	fs.StringVar(&cfg.ConfigPath, "c",
		getEnv("BOUNDEDBUF_CONFIG", ""),
		"Path to a JSON or YAML workload file (env: BOUNDEDBUF_CONFIG)")

	fs.StringVar(&cfg.Scenario, "scenario",
		getEnv("BOUNDEDBUF_SCENARIO", ""),
		"Built-in scenario to run; a -config file is layered on top (env: BOUNDEDBUF_SCENARIO)")
	fs.StringVar(&cfg.Scenario, "s",
		getEnv("BOUNDEDBUF_SCENARIO", ""),
		"Built-in scenario to run (env: BOUNDEDBUF_SCENARIO)")

	fs.StringVar(&cfg.LogLevel, "log-level",
		getEnv("BOUNDEDBUF_LOG_LEVEL", ""),
		"Log level: debug, info, warn, error; overrides the file (env: BOUNDEDBUF_LOG_LEVEL)")
	fs.StringVar(&cfg.LogFormat, "log-format",
		getEnv("BOUNDEDBUF_LOG_FORMAT", ""),
		"Log format: json, text; overrides the file (env: BOUNDEDBUF_LOG_FORMAT)")

	fs.IntVar(&cfg.MetricsPort, "metrics-port",
		getEnvInt("BOUNDEDBUF_METRICS_PORT", -1),
		"Serve Prometheus metrics on this port, -1 to follow the file (env: BOUNDEDBUF_METRICS_PORT)")
	fs.DurationVar(&cfg.Linger, "linger",
		getEnvDuration("BOUNDEDBUF_LINGER", 0),
		"Keep the metrics endpoint up this long after the run (env: BOUNDEDBUF_LINGER)")

	fs.BoolVar(&cfg.ListScenario, "list", false, "List built-in scenarios and exit")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	fs.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	fs.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	fs.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")
	fs.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	fs.Usage = func() {
		printDetailedHelp(fs.Output(), fs)
	}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return cfg, fs, nil
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion || cfg.ShowHelp || cfg.ListScenario {
		return nil
	}

	if cfg.ConfigPath != "" {
		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
		}
	}

	if cfg.LogLevel != "" && !slices.Contains([]string{"debug", "info", "warn", "error"}, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	if cfg.LogFormat != "" && !slices.Contains([]string{"json", "text"}, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	if cfg.MetricsPort < -1 || cfg.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", cfg.MetricsPort)
	}

	if cfg.Linger < 0 {
		return fmt.Errorf("invalid linger: %v", cfg.Linger)
	}

	return nil
}

func printDetailedHelp(w io.Writer, fs *flag.FlagSet) {
	_, _ = fmt.Fprintf(w, `%s - bounded buffer workload runner

Usage: %s [options]

Options:
`, appName, appName)
	fs.SetOutput(w)
	fs.PrintDefaults()
	_, _ = fmt.Fprintf(w, `
Examples:
  # Run a built-in scenario
  %s -scenario=mpmc

  # Run a scenario with overrides from a file, serving metrics on :9090
  %s -scenario=timed-contention -config=ci.yaml -metrics-port=9090

  # Validate a workload file only
  %s -config=workload.json -validate

Version: %s
Build: %s
`, appName, appName, appName, Version, BuildTime)
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
