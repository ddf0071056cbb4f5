package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/bf2fc6cc711aee1a0c2a/perfenv/internal/config"
	"github.com/bf2fc6cc711aee1a0c2a/perfenv/internal/logging"
	"github.com/bf2fc6cc711aee1a0c2a/perfenv/internal/report"
)

var newLogger = logging.New

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "perfenv: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	kingpinApp := kingpin.New("perfenv", "Resolves performance suite settings from environment, config file and defaults")
	configFile := kingpinApp.Flag("config", "Path to the configuration file (overrides "+config.ConfigPathEnv+")").String()
	suiteRoot := kingpinApp.Flag("suite-root", "Base directory for default kubeconfig and cluster file paths").Default(config.DefaultSuiteRoot()).String()
	output := kingpinApp.Flag("output", "Output format").Short('o').Default(report.FormatText).Enum(report.Formats()...)
	logLevel := kingpinApp.Flag("log-level", "Log level").Default("info").Enum("debug", "info", "warn", "error")

	if _, err := kingpinApp.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	logger, err := newLogger(*logLevel)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	opts := []config.Option{config.WithLogger(logger)}
	if *configFile != "" {
		opts = append(opts, config.WithConfigPath(*configFile))
	}
	resolver := config.NewResolver(opts...)

	settings, err := config.Load(resolver, *suiteRoot)
	if err != nil {
		logger.Error("failed to resolve settings", zap.Error(err))
		return fmt.Errorf("load settings: %w", err)
	}
	config.LogSettings(logger, settings)

	return report.Write(stdout, *output, settings.ConfigPath, settings.Resolved)
}
