// Package app wires the sync loop with its optional collaborators.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ovpnsync/internal/config"
	"ovpnsync/internal/dropbox"
	"ovpnsync/internal/metrics"
	"ovpnsync/internal/notify"
	"ovpnsync/internal/publish"
	"ovpnsync/internal/resolver"
	"ovpnsync/internal/retry"
	"ovpnsync/internal/server"
	"ovpnsync/internal/server/api"
	"ovpnsync/internal/syncer"
)

// component is started before the loop and stopped after it, in reverse
type component struct {
	name  string
	start func(context.Context) error
	stop  func() error
}

// App owns the sync loop and the components around it
type App struct {
	config     *config.Config
	logger     *zap.Logger
	syncer     *syncer.Syncer
	metrics    *metrics.Metrics
	components []component
}

// New builds the application from cfg
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	dest, err := publish.ParseDestination(cfg.Destination)
	if err != nil {
		return nil, fmt.Errorf("invalid destination: %w", err)
	}

	retry.SetLogger(logger.Sugar().Debugf)

	a := &App{
		config:  cfg,
		logger:  logger,
		metrics: metrics.New(),
	}

	var locator publish.FolderLocator
	if dest.Kind == publish.KindExternalFolder {
		locator = dropbox.NewLocator()
	}

	opts := []syncer.Option{syncer.WithMetrics(a.metrics)}
	var checks []api.Option

	if cfg.Notify.Enabled {
		nm, err := notify.NewManager(&cfg.Notify, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create notification manager: %w", err)
		}
		opts = append(opts, syncer.WithNotifier(nm))
		checks = append(checks, api.WithHealthCheck("notify", nm.Health))
		a.components = append(a.components, component{
			name:  "notify",
			start: func(context.Context) error { return nil },
			stop:  nm.Stop,
		})
	}

	a.syncer = syncer.New(syncer.Options{
		Source:      cfg.Source,
		Destination: dest,
		Interval:    cfg.Interval,
		RetryDelay:  cfg.RetryDelay,
	},
		resolver.NewWeb(cfg.Resolver),
		publish.New(locator, logger.Named("publish")),
		logger,
		opts...,
	)

	if cfg.Status.Enabled {
		srv := server.New(&cfg.Status, a.syncer, a.metrics, logger.Named("status"), checks...)
		a.components = append(a.components, component{
			name:  "status",
			start: srv.Start,
			stop:  srv.Stop,
		})
	}

	return a, nil
}

// Syncer returns the sync loop
func (a *App) Syncer() *syncer.Syncer {
	return a.syncer
}

// Run starts the components and loops until ctx is cancelled
func (a *App) Run(ctx context.Context) error {
	started := 0
	defer func() { a.stop(started) }()

	for _, c := range a.components {
		if err := c.start(ctx); err != nil {
			return fmt.Errorf("failed to start %s: %w", c.name, err)
		}
		started++
	}

	a.syncer.Run(ctx)
	return nil
}

// RunOnce performs a single cycle and returns its error
func (a *App) RunOnce(ctx context.Context) (syncer.Outcome, error) {
	defer a.stop(len(a.components))

	out := a.syncer.RunOnce(ctx)
	return out, out.Err
}

func (a *App) stop(n int) {
	for i := n - 1; i >= 0; i-- {
		c := a.components[i]
		if err := c.stop(); err != nil {
			a.logger.Error("Failed to stop component",
				zap.String("component", c.name),
				zap.Error(err))
		}
	}
}
