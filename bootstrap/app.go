// Package bootstrap wires configuration, logging, storage, and the
// campaign runner into a running application.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"mirage/api"
	"mirage/config"
	"mirage/core"
	"mirage/runner"
	"mirage/scenario"
	"mirage/synth"
)

// App represents the simulation engine with all its components.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Sugar   *zap.SugaredLogger
	Catalog *scenario.Catalog
	Filler  synth.ContentFiller
	Storage *StorageComponents
	Runner  *runner.Runner
	API     *api.API

	shutdownCh      chan struct{}
	shutdownTracing func(context.Context) error
}

// NewApp creates a new application instance and initializes all components.
func NewApp(ctx context.Context) (*App, error) {
	app := &App{shutdownCh: make(chan struct{})}

	logger, sugar, err := InitLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger = logger
	app.Sugar = sugar

	sugar.Info("Mirage simulation engine starting...")

	cfg, err := InitConfig(sugar)
	if err != nil {
		return nil, err
	}
	app.Config = cfg

	shutdownTracing, err := InitTracing(ctx, sugar)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	app.shutdownTracing = shutdownTracing

	catalog := scenario.NewCatalog()
	if cfg.Simulation.CatalogFile != "" {
		if err := catalog.LoadFile(cfg.Simulation.CatalogFile); err != nil {
			return nil, fmt.Errorf("failed to load scenario catalog %s: %w", cfg.Simulation.CatalogFile, err)
		}
		sugar.Infow("Scenario catalog extended", "file", cfg.Simulation.CatalogFile)
	}
	app.Catalog = catalog

	app.Filler = BuildFiller(cfg)

	comps, err := InitStorage(ctx, cfg, sugar)
	if err != nil {
		return nil, err
	}
	app.Storage = comps

	app.Runner = runner.New(catalog, app.Filler, comps.Sinks, sugar)

	if cfg.API.Enabled {
		app.API = api.NewAPI(app.Runner, comps.Registry, comps.Cache, comps.Archiver, sugar)
	}

	return app, nil
}

// BuildFiller assembles the content collaborator: a template filler
// wrapped with the configured rate limit and call deadline.
func BuildFiller(cfg *config.Config) synth.ContentFiller {
	var filler synth.ContentFiller = synth.NewTemplateFiller(core.NewTimeRand())
	if cfg.Filler.RatePerSecond > 0 {
		limiter := rate.NewLimiter(rate.Limit(cfg.Filler.RatePerSecond), 1)
		filler = synth.NewRateLimitedFiller(filler, limiter)
	}
	return synth.NewDeadlineFiller(filler, cfg.Filler.Timeout)
}

// Serve runs the HTTP API until a signal or context cancellation, then
// shuts everything down.
func (a *App) Serve(ctx context.Context) error {
	if a.API == nil {
		return fmt.Errorf("API server is disabled in configuration")
	}

	addr := fmt.Sprintf("%s:%d", a.Config.API.Host, a.Config.API.Port)
	errCh := make(chan error, 1)
	go func() {
		a.Sugar.Infow("API server listening", "addr", addr)
		errCh <- a.API.Start(addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("API server failed: %w", err)
		}
	case sig := <-sigCh:
		a.Sugar.Infow("Signal received, shutting down", "signal", sig)
	case <-ctx.Done():
		a.Sugar.Info("Context cancelled, shutting down")
	}

	return a.Shutdown()
}

// Shutdown stops the API server and closes storage backends.
func (a *App) Shutdown() error {
	close(a.shutdownCh)

	if a.API != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.API.Stop(ctx); err != nil {
			a.Sugar.Warnw("API shutdown error", "error", err)
		}
	}

	if a.Storage != nil {
		a.Storage.Close()
	}

	if a.shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdownTracing(ctx); err != nil {
			a.Sugar.Warnw("Tracer shutdown error", "error", err)
		}
	}

	a.Sugar.Info("Shutdown complete")
	_ = a.Logger.Sync()
	return nil
}
