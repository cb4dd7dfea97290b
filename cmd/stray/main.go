package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"stray/internal/core/config"
	"stray/internal/shared/observability"
)

var (
	configPath = flag.String("config", "./stray.toml", "Path to config file")
	once       = flag.Bool("once", false, "Run single analysis and exit")
	watchMode  = flag.Bool("watch", false, "Re-run analysis on file changes")
	format     = flag.String("format", "", "Output format: text, json or tsv (overrides config)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "0.1.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("stray v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *format != "" {
		cfg.Output.Format = *format
	}
	if flag.NArg() > 0 {
		cfg.ProjectRoot = flag.Arg(0)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Observability.TraceEndpoint != "" {
		shutdown, err := observability.InitTracing(ctx, cfg.Observability.TraceEndpoint)
		if err != nil {
			slog.Warn("tracing disabled", "error", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					slog.Warn("failed to flush traces", "error", err)
				}
			}()
		}
	}

	app, err := NewApp(cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.StartObservability(ctx); err != nil {
		slog.Error("failed to start observability server", "error", err)
		os.Exit(1)
	}

	rep, err := app.RunOnce(ctx)
	if err != nil {
		slog.Error("analysis run failed", "error", err)
		os.Exit(1)
	}

	if *once || !*watchMode {
		if rep.UnusedCount() > 0 || rep.UnresolvedCount() > 0 {
			os.Exit(2)
		}
		return
	}

	if err := app.StartWatcher(ctx); err != nil {
		slog.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}
	slog.Info("watching for changes", "root", cfg.ProjectRoot)

	<-ctx.Done()
	slog.Info("shutting down")
}
