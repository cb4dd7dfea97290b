package main

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"stray/internal/core/config"
	"stray/internal/data/history"
	"stray/internal/discovery"
	"stray/internal/engine/analysis"
	"stray/internal/shared/util"
	"stray/internal/ui/cli"
	"stray/internal/ui/report"
	"stray/internal/watcher"
)

type App struct {
	Config   *config.Config
	Runner   *analysis.Runner
	Renderer report.Renderer

	history   *history.Store
	watcher   *watcher.Watcher
	obsServer *cli.ObservabilityServer
	limiter   *util.Limiter

	mu      sync.Mutex
	lastRun time.Time
	lastRep *analysis.Report
}

func NewApp(cfg *config.Config) (*App, error) {
	renderer, err := report.For(cfg.Output.Format)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		Runner:   analysis.NewRunner(),
		Renderer: renderer,
		limiter:  util.NewLimiter(float64(cfg.Watch.MaxRunsPerMinute)/60.0, 1),
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		app.history = store
	}

	return app, nil
}

// RunOnce discovers, analyzes and renders one full pass over the project.
func (a *App) RunOnce(ctx context.Context) (*analysis.Report, error) {
	inputs, err := discovery.Discover(discovery.Options{
		Root:         a.Config.ProjectRoot,
		ExcludeDirs:  a.Config.Exclude.Dirs,
		ExcludeFiles: a.Config.Exclude.Files,
		Languages:    a.Config.Languages.Enabled(),
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("discovered source files", "count", len(inputs))

	rep, err := a.Runner.Run(ctx, inputs)
	if err != nil {
		return nil, err
	}

	if err := a.Renderer.Render(os.Stdout, rep); err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.lastRun = time.Now()
	a.lastRep = rep
	a.mu.Unlock()

	if a.history != nil {
		snapshot := history.Snapshot{
			FileCount:       len(rep.Files),
			ModuleCount:     rep.ModuleCount(),
			ImportCount:     rep.ImportCount(),
			UnusedCount:     rep.UnusedCount(),
			UnresolvedCount: rep.UnresolvedCount(),
			ParseErrorCount: rep.ParseErrorCount(),
		}
		if err := a.history.SaveSnapshot(a.Config.History.Project, snapshot); err != nil {
			slog.Warn("failed to save run snapshot", "error", err)
		}
	}

	return rep, nil
}

// StartWatcher begins watch mode: file change bursts trigger a re-run,
// rate-limited so a pathological editor cannot spin the analyzer.
func (a *App) StartWatcher(ctx context.Context) error {
	w, err := watcher.New(
		a.Config.Watch.Debounce,
		a.Config.Exclude.Dirs,
		a.Config.Exclude.Files,
		func(paths []string) {
			if !a.limiter.Allow(1) {
				slog.Warn("re-run suppressed by rate limit", "changed", len(paths))
				return
			}
			slog.Info("source change detected", "changed", len(paths))
			if _, err := a.RunOnce(ctx); err != nil {
				slog.Error("analysis run failed", "error", err)
			}
		},
	)
	if err != nil {
		return err
	}
	if err := w.AddRoot(a.Config.ProjectRoot); err != nil {
		w.Close()
		return err
	}
	w.Start()
	a.watcher = w
	return nil
}

// StartObservability serves /metrics and /health when an address is set.
func (a *App) StartObservability(ctx context.Context) error {
	addr := a.Config.Observability.MetricsAddr
	if addr == "" {
		return nil
	}
	a.obsServer = cli.NewObservabilityServer(addr, a.healthStatus)
	return a.obsServer.Start(ctx)
}

func (a *App) healthStatus() cli.HealthStatus {
	a.mu.Lock()
	defer a.mu.Unlock()

	status := cli.HealthStatus{Status: "up"}
	if !a.lastRun.IsZero() {
		status.LastRunUnix = a.lastRun.Unix()
	}
	if a.lastRep != nil {
		status.FilesAnalyzed = len(a.lastRep.Files)
		status.ParseErrors = a.lastRep.ParseErrorCount()
	}
	return status
}

func (a *App) Close() {
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			slog.Warn("failed to close watcher", "error", err)
		}
	}
	if a.obsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.obsServer.Stop(ctx); err != nil {
			slog.Warn("failed to stop observability server", "error", err)
		}
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			slog.Warn("failed to close history store", "error", err)
		}
	}
}
