// cmd/task-router/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"task-command-router/internal/api"
	"task-command-router/internal/app"
	"task-command-router/internal/common/camunda"
	"task-command-router/internal/common/config"
	"task-command-router/internal/common/logger"
	"task-command-router/internal/common/observability"

	pcm "task-command-router/internal/workers/chat/process-chat-message"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "task-router: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	log, err := logger.NewFromConfig(cfg.Logging)
	if err != nil {
		return fmt.Errorf("logger init failed: %w", err)
	}
	defer logger.Sync(log)

	log.Info("starting task router", map[string]interface{}{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
		"store":       cfg.Router.Store,
	})

	obs := observability.New(cfg.App.Name)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router, err := app.Build(ctx, cfg, log,
		app.WithConnectRetry(10, 2*time.Second),
		app.WithObservability(obs),
	)
	if err != nil {
		return fmt.Errorf("router init failed: %w", err)
	}
	defer router.Close()

	var (
		zeebe     *camunda.Client
		jobWorker *camunda.JobWorker
	)
	if cfg.Camunda.Enabled {
		zeebe, jobWorker, err = startChatWorker(cfg, router, log)
		if err != nil {
			return err
		}
		defer zeebe.Close()
	}

	opts := []api.Option{}
	for name, check := range router.Checks {
		opts = append(opts, api.WithCheck(name, check))
	}
	if zeebe != nil {
		opts = append(opts, api.WithCheck("zeebe", api.PingFunc(zeebe.HealthCheck)))
	}
	server := api.NewServer(cfg.Server, router.Chat, log, opts...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
		defer cancel()

		jobWorker.Stop(shutdownCtx)
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("http server shutdown failed", map[string]interface{}{"error": err.Error()})
		}
		if err := obs.Shutdown(shutdownCtx); err != nil {
			log.Warn("observability shutdown failed", map[string]interface{}{"error": err.Error()})
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("task router stopped gracefully", nil)
	return nil
}

func startChatWorker(cfg *config.Config, router *app.App, log logger.Logger) (*camunda.Client, *camunda.JobWorker, error) {
	zeebe, err := camunda.NewClientFromConfig(cfg.Camunda)
	if err != nil {
		return nil, nil, fmt.Errorf("zeebe client failed: %w", err)
	}

	handler, err := pcm.NewHandler(pcm.HandlerOptions{
		AppConfig: cfg,
		Chat:      router.Chat,
		Logger:    &processChatMessageLoggerAdapter{log},
	})
	if err != nil {
		zeebe.Close()
		return nil, nil, err
	}

	wcfg := config.GetWorkerConfig(cfg, pcm.TaskType)
	if wcfg.MaxJobsActive == 0 {
		wcfg.MaxJobsActive = cfg.Camunda.MaxJobsActive
	}
	jobWorker := camunda.StartWorker(zeebe.GetClient(), pcm.TaskType, wcfg, handler.Handle, log)
	return zeebe, jobWorker, nil
}

// processChatMessageLoggerAdapter satisfies the worker's own Logger interface.
type processChatMessageLoggerAdapter struct {
	logger.Logger
}

func (a *processChatMessageLoggerAdapter) With(fields map[string]interface{}) pcm.Logger {
	return &processChatMessageLoggerAdapter{a.Logger.With(fields)}
}
