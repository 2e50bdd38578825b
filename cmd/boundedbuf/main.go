// Package main implements boundedbuf, a command that runs producer/consumer
// workloads against the bounded buffer and reports whether it kept its
// guarantees.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/c360/boundedbuffer/config"
	"github.com/c360/boundedbuffer/errors"
	"github.com/c360/boundedbuffer/metric"
	"github.com/c360/boundedbuffer/workload"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "boundedbuf"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(exitFatal)
		}
	}()

	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		code := exitCode(err)
		slog.Error("Application failed", "error", err, "class", errors.Classify(err).String(), "exit_code", code)
		os.Exit(code)
	}
}

// Exit statuses by error class
const (
	exitTransient = 1 // timed out or cancelled; rerunning may help
	exitInvalid   = 2 // bad flags or configuration
	exitFatal     = 3 // a buffer guarantee was broken
)

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	switch errors.Classify(err) {
	case errors.ErrorInvalid:
		return exitInvalid
	case errors.ErrorFatal:
		return exitFatal
	default:
		return exitTransient
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	cliCfg, fs, err := parseFlags(args)
	if err != nil {
		return errors.WrapInvalid(err, "CLI", "run", "parse flags")
	}
	if err := validateFlags(cliCfg); err != nil {
		return errors.WrapInvalid(err, "CLI", "run", "validate flags")
	}

	switch {
	case cliCfg.ShowVersion:
		_, _ = fmt.Fprintf(stdout, "%s version %s\n", appName, Version)
		return nil
	case cliCfg.ShowHelp:
		printDetailedHelp(stdout, fs)
		return nil
	case cliCfg.ListScenario:
		for _, s := range workload.Scenarios() {
			_, _ = fmt.Fprintf(stdout, "%-22s %s\n", s.Name, s.Description)
		}
		return nil
	}

	cfg, err := loadConfig(cliCfg)
	if err != nil {
		return err
	}

	logger := setupLogger(stderr,
		firstNonEmpty(cliCfg.LogLevel, cfg.Log.Level),
		firstNonEmpty(cliCfg.LogFormat, cfg.Log.Format))
	slog.SetDefault(logger)

	if cliCfg.Validate {
		logger.Info("Configuration is valid", "scenario", cfg.Name, "items", cfg.TotalItems())
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var registry *metric.MetricsRegistry
	if cfg.Metrics.Enabled {
		registry = metric.NewMetricsRegistry()
		server := metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry)
		if err := server.Start(); err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
		defer func() {
			if err := server.Stop(); err != nil {
				logger.Warn("Metrics server stop failed", "error", err)
			}
		}()
		logger.Info("Serving metrics", "url", server.URL())
	}

	report, runErr := workload.Run(ctx, cfg,
		workload.WithLogger(logger),
		workload.WithMetrics(registry))

	if report != nil {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	if registry != nil && cliCfg.Linger > 0 {
		logger.Info("Keeping metrics endpoint up", "linger", cliCfg.Linger)
		select {
		case <-ctx.Done():
		case <-time.After(cliCfg.Linger):
		}
	}

	return runErr
}

// loadConfig layers the optional file over the chosen scenario or the
// defaults, then applies the metrics port flag.
func loadConfig(cliCfg *CLIConfig) (*config.Config, error) {
	loader := config.NewLoader()

	if cliCfg.Scenario != "" {
		s, ok := workload.Lookup(cliCfg.Scenario)
		if !ok {
			return nil, fmt.Errorf("unknown scenario %q, see -list: %w", cliCfg.Scenario, errors.ErrInvalidConfig)
		}
		loader.WithBase(s.Config())
	}
	if cliCfg.ConfigPath != "" {
		loader.AddLayer(cliCfg.ConfigPath)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if cliCfg.MetricsPort >= 0 {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Port = cliCfg.MetricsPort
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
