// Command taskchat talks to the task router from a terminal, backed by a
// local SQLite file.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"task-command-router/internal/app"
	"task-command-router/internal/common/config"
	"task-command-router/internal/common/logger"
)

type rootOptions struct {
	configPath string
	dbPath     string
	jsonOut    bool
	fallback   bool
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "taskchat",
		Short:         "Manage tasks with plain-language commands",
		Long:          `taskchat routes sentences like "add task Buy milk" or "complete task 2" to a local task list.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (defaults to configs/config.yaml lookup)")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database file (overrides database.sqlite.path)")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "Print raw JSON responses")
	root.PersistentFlags().BoolVar(&opts.fallback, "fallback", true, "Answer non-task messages with the fallback responder")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level written to stderr")

	root.AddCommand(newAskCmd(opts), newChatCmd(opts), newTasksCmd(opts), newCommandsCmd(opts))
	return root
}

// buildRouter assembles the chat stack over SQLite. Journal and workflow
// integrations stay off for local use.
func buildRouter(ctx context.Context, opts *rootOptions) (*app.App, logger.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFromFile(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, err
	}

	cfg.Router.Store = config.StoreSQLite
	if opts.dbPath != "" {
		cfg.Database.SQLite.Path = opts.dbPath
	}
	cfg.Router.JournalEnabled = false
	cfg.Router.FallbackEnabled = opts.fallback
	cfg.Camunda.Enabled = false

	log, err := logger.NewFromConfig(config.LoggingConfig{
		Level:  opts.logLevel,
		Format: "console",
		Output: "stderr",
	})
	if err != nil {
		return nil, nil, err
	}

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return a, log, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if err != errSilentFailure {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
