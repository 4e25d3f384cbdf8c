// Package main implements the entry point for target-singer-jsonl, a Singer
// target that reads SCHEMA, RECORD and STATE messages from stdin and writes
// one JSON-lines artifact per stream to local disk, S3 or a NATS object store.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/c360/target-singer-jsonl/config"
	"github.com/c360/target-singer-jsonl/errors"
	"github.com/c360/target-singer-jsonl/metric"
	"github.com/c360/target-singer-jsonl/natsclient"
	"github.com/c360/target-singer-jsonl/storage"
	"github.com/c360/target-singer-jsonl/storage/local"
	"github.com/c360/target-singer-jsonl/storage/objectstore"
	"github.com/c360/target-singer-jsonl/storage/s3"
	"github.com/c360/target-singer-jsonl/target"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "target-singer-jsonl"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		stop()
		os.Exit(1)
	}
}

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	cliCfg := &CLIConfig{}

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Write Singer streams to JSON-lines artifacts",
		Long:          "Reads Singer SCHEMA, RECORD and STATE messages, validates every record against its stream schema and writes one artifact per stream. The last checkpoint is printed to stdout once every artifact is committed.",
		Example:       fmt.Sprintf(examples, appName),
		Version:       fmt.Sprintf("%s (build %s)", Version, BuildTime),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFlags(cliCfg); err != nil {
				return fmt.Errorf("invalid flags: %w", err)
			}

			logger := setupLogger(stderr, cliCfg.LogLevel, cliCfg.LogFormat)
			slog.SetDefault(logger)

			return run(cmd.Context(), cliCfg, stdin, stdout, logger)
		},
	}
	cmd.SetOut(stderr)
	cmd.SetErr(stderr)

	addFlags(cmd, cliCfg)
	return cmd
}

func run(ctx context.Context, cliCfg *CLIConfig, stdin io.Reader, stdout io.Writer, logger *slog.Logger) error {
	logger.Info("Starting target",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	cfg, err := initializeConfiguration(cliCfg)
	if err != nil {
		return err
	}
	logger.Debug("Configuration loaded", "config", cfg.String())

	if cliCfg.Validate {
		logger.Info("Configuration is valid", "destination", cfg.Destination)
		return nil
	}

	runID := uuid.NewString()

	opener, closeOpener, err := newOpener(ctx, cfg, runID, logger)
	if err != nil {
		return err
	}
	defer closeOpener()

	input, closeInput, err := openInput(cliCfg.InputPath, stdin)
	if err != nil {
		return err
	}
	defer closeInput()

	registry := metric.NewMetricsRegistry()
	defer writeMetrics(registry, cfg.MetricsFile, logger)

	t, err := target.New(cfg, opener,
		target.WithLogger(logger),
		target.WithMetrics(registry.Metrics),
		target.WithRunID(runID))
	if err != nil {
		return err
	}

	_, err = t.Run(ctx, input, stdout)
	return err
}

// initializeConfiguration loads defaults, the optional config file and the
// environment, in that order.
func initializeConfiguration(cliCfg *CLIConfig) (*config.Config, error) {
	loader := config.NewLoader()
	if cliCfg.ConfigPath != "" {
		loader.AddLayer(cliCfg.ConfigPath)
	}
	loader.EnableValidation(true)

	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if cliCfg.MetricsFile != "" {
		cfg.MetricsFile = cliCfg.MetricsFile
	}
	return cfg, nil
}

// newOpener builds the storage backend for the configured destination. The
// returned cleanup func is always safe to call.
func newOpener(
	ctx context.Context,
	cfg *config.Config,
	runID string,
	logger *slog.Logger,
) (storage.Opener, func(), error) {
	noop := func() {}
	md := map[string]string{"run-id": runID}

	switch cfg.Destination {
	case config.DestinationLocal:
		return local.NewOpener(logger), noop, nil

	case config.DestinationS3:
		client, err := s3.NewClient(ctx, s3.Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("create s3 client: %w", err)
		}
		return s3.NewOpener(client, cfg.S3.Bucket,
			s3.WithLogger(logger),
			s3.WithMetadata(md)), noop, nil

	case config.DestinationNATS:
		return connectObjectStore(ctx, cfg, md, logger)

	default:
		return nil, noop, errors.UnsupportedDestination(cfg.Destination)
	}
}

func connectObjectStore(
	ctx context.Context,
	cfg *config.Config,
	md map[string]string,
	logger *slog.Logger,
) (storage.Opener, func(), error) {
	noop := func() {}

	opts := []natsclient.ClientOption{
		natsclient.WithLogger(logger),
		natsclient.WithName(appName),
	}
	if cfg.NATS.Username != "" || cfg.NATS.Password != "" {
		opts = append(opts, natsclient.WithCredentials(cfg.NATS.Username, cfg.NATS.Password))
	}
	if cfg.NATS.Token != "" {
		opts = append(opts, natsclient.WithToken(cfg.NATS.Token))
	}

	client, err := natsclient.NewClient(cfg.NATSURL(), opts...)
	if err != nil {
		return nil, noop, fmt.Errorf("create nats client: %w", err)
	}

	logger.Info("Connecting to NATS", "url", client.URL())
	if err := client.Connect(ctx); err != nil {
		return nil, noop, fmt.Errorf("connect to NATS: %w", err)
	}

	closeClient := func() {
		if err := client.Close(context.Background()); err != nil {
			logger.Warn("Failed to close NATS connection", "error", err)
		}
	}

	opener, err := objectstore.Connect(ctx, client, cfg.NATS.Bucket,
		objectstore.WithLogger(logger),
		objectstore.WithMetadata(md))
	if err != nil {
		closeClient()
		return nil, noop, err
	}
	return opener, closeClient, nil
}

func openInput(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, func() {}, fmt.Errorf("open input: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func writeMetrics(registry *metric.MetricsRegistry, path string, logger *slog.Logger) {
	if path == "" {
		return
	}
	if err := registry.WriteTextfile(path); err != nil {
		logger.Warn("Failed to write metrics textfile", "path", path, "error", err)
		return
	}
	logger.Debug("Metrics written", "path", path)
}
