// Package app wires the configured store, responders and journal into a
// chat service shared by the server and the CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"task-command-router/internal/api"
	"task-command-router/internal/chat"
	"task-command-router/internal/common/config"
	"task-command-router/internal/common/database"
	"task-command-router/internal/common/logger"
	"task-command-router/internal/common/observability"
	"task-command-router/internal/dispatch"
	"task-command-router/internal/fallback"
	"task-command-router/internal/intent"
	"task-command-router/internal/journal"
	"task-command-router/internal/tasks"
	"task-command-router/pkg/registry"
)

// App holds the collaborators built from one Config.
type App struct {
	Config     *config.Config
	Store      tasks.Store
	Catalog    *registry.Catalog
	Classifier *intent.Classifier
	Dispatcher *dispatch.Dispatcher
	Chat       *chat.Service

	// Checks are the readiness probes for every external dependency.
	Checks map[string]api.Pinger

	closers []func() error
	logger  logger.Logger
}

type Option func(*buildOptions)

type buildOptions struct {
	connectAttempts int
	connectDelay    time.Duration
	obs             *observability.Observability
}

// WithConnectRetry retries the first ping of each backing service.
func WithConnectRetry(attempts int, delay time.Duration) Option {
	return func(o *buildOptions) {
		o.connectAttempts = attempts
		o.connectDelay = delay
	}
}

func WithObservability(obs *observability.Observability) Option {
	return func(o *buildOptions) { o.obs = obs }
}

// Build opens every configured backend. On error, whatever was already
// opened is closed.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (a *App, err error) {
	o := buildOptions{connectAttempts: 1, connectDelay: time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	a = &App{
		Config: cfg,
		Checks: make(map[string]api.Pinger),
		logger: log.With(map[string]interface{}{"component": "app"}),
	}
	defer func() {
		if err != nil {
			_ = a.Close()
			a = nil
		}
	}()

	if a.Catalog, err = registry.LoadCatalog(cfg.Router.CatalogPath); err != nil {
		return nil, fmt.Errorf("load command catalog: %w", err)
	}

	if a.Classifier, err = intent.NewClassifier(
		intent.WithMatchTimeout(config.GetDuration(cfg.Router.MatchTimeout)),
	); err != nil {
		return nil, err
	}

	if err = a.openStore(ctx, o); err != nil {
		return nil, err
	}
	a.Dispatcher = dispatch.NewDispatcher(a.Store, a.Catalog, log)

	chatOpts := []chat.Option{}
	if o.obs != nil {
		chatOpts = append(chatOpts, chat.WithObservability(o.obs))
	}

	if cfg.Router.FallbackEnabled {
		responder, timeout, err := a.buildResponder(ctx, o, log)
		if err != nil {
			return nil, err
		}
		chatOpts = append(chatOpts, chat.WithResponder(responder), chat.WithResponseTimeout(timeout))
	}

	if cfg.Router.JournalEnabled {
		j, err := a.openJournal(ctx, o)
		if err != nil {
			return nil, err
		}
		chatOpts = append(chatOpts, chat.WithJournal(j))
	}

	a.Chat = chat.NewService(a.Classifier, a.Dispatcher, log, chatOpts...)

	a.logger.Info("router assembled", map[string]interface{}{
		"store":    cfg.Router.Store,
		"fallback": cfg.Router.FallbackEnabled,
		"journal":  cfg.Router.JournalEnabled,
		"commands": len(a.Catalog.Commands),
	})
	return a, nil
}

func (a *App) openStore(ctx context.Context, o buildOptions) error {
	switch a.Config.Router.Store {
	case config.StoreMemory:
		a.Store = tasks.NewMemoryStore()
		return nil

	case config.StoreSQLite:
		client, err := database.NewSQLite(a.Config.Database.SQLite)
		if err != nil {
			return fmt.Errorf("%w: %v", tasks.ErrTaskStoreFailed, err)
		}
		return a.useSQL(ctx, o, client, tasks.SQLite)

	case config.StorePostgres:
		client, err := database.NewPostgres(a.Config.Database.Postgres)
		if err != nil {
			return fmt.Errorf("%w: %v", tasks.ErrTaskStoreFailed, err)
		}
		return a.useSQL(ctx, o, client, tasks.Postgres)

	default:
		return fmt.Errorf("unsupported task store %q", a.Config.Router.Store)
	}
}

func (a *App) useSQL(ctx context.Context, o buildOptions, client *database.SQLClient, dialect tasks.Dialect) error {
	a.closers = append(a.closers, client.Close)

	if err := retryWithBackoff(ctx, func() error { return client.Ping(ctx) },
		o.connectAttempts, o.connectDelay, a.logger, client.Driver+" connection"); err != nil {
		return err
	}

	store := tasks.NewSQLStore(client.DB, dialect)
	if err := store.Migrate(ctx); err != nil {
		return err
	}

	a.Store = store
	a.Checks[client.Driver] = client
	return nil
}

// buildResponder chains the (optionally cached) OpenRouter client in front of
// the simulated responder. Without an API key only the simulated responder
// runs.
func (a *App) buildResponder(ctx context.Context, o buildOptions, log logger.Logger) (fallback.Responder, time.Duration, error) {
	fcfg := fallback.NewConfig(a.Config.APIs.OpenRouter)
	timeout := fcfg.Timeout*time.Duration(fcfg.MaxRetries+1) + time.Second

	var responders []fallback.Responder
	if fcfg.APIKey != "" {
		var remote fallback.Responder = fallback.NewOpenRouter(fcfg, log)

		if fcfg.CacheTTL > 0 {
			rdb, err := database.NewRedis(a.Config.Database.Redis)
			if err != nil {
				return nil, 0, err
			}
			a.closers = append(a.closers, rdb.Close)

			if err := retryWithBackoff(ctx, func() error { return rdb.Ping(ctx) },
				o.connectAttempts, o.connectDelay, a.logger, "Redis connection"); err != nil {
				return nil, 0, err
			}
			remote = fallback.NewCached(remote, rdb.Client, fcfg.CacheTTL, log)
			a.Checks["redis"] = rdb
		}
		responders = append(responders, remote)
	} else {
		a.logger.Warn("no OpenRouter API key configured, using simulated replies", nil)
	}

	responders = append(responders, fallback.NewSimulated())
	return fallback.NewChain(log, responders...), timeout, nil
}

func (a *App) openJournal(ctx context.Context, o buildOptions) (journal.Journal, error) {
	es, err := database.NewElasticsearch(a.Config.Database.Elasticsearch)
	if err != nil {
		return nil, err
	}

	if err := retryWithBackoff(ctx, func() error { return es.Ping(ctx) },
		o.connectAttempts, o.connectDelay, a.logger, "Elasticsearch connection"); err != nil {
		return nil, err
	}

	a.Checks["elasticsearch"] = es
	return journal.NewElasticsearch(es.Client, a.Config.Router.JournalIndex), nil
}

// Close releases backends in reverse opening order.
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}

// retryWithBackoff calls operation up to maxRetries times, doubling the delay
// after each failure.
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	if maxRetries < 1 {
		maxRetries = 1
	}

	var err error
	delay := initialDelay
	for i := 0; i < maxRetries; i++ {
		if err = operation(); err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("%s cancelled: %w", operationName, ctx.Err())
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}
