package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"task-command-router/internal/common/config"
	"task-command-router/internal/common/logger"
	"task-command-router/pkg/registry"
)

func newTasksCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"ls"},
		Short:   "Print the stored task list",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			router, log, err := buildRouter(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer router.Close()
			defer logger.Sync(log)

			list, err := router.Store.ListTasks(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			if len(list) == 0 {
				fmt.Fprintln(out, "No tasks found")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDONE\tTITLE")
			for _, t := range list {
				done := " "
				if t.Completed {
					done = "x"
				}
				fmt.Fprintf(tw, "%d\t[%s]\t%s\n", t.ID, done, t.Title)
			}
			return tw.Flush()
		},
	}
}

func newCommandsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List the commands the router understands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := loadCatalog(opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(catalog)
			}

			for _, c := range catalog.Commands {
				fmt.Fprintf(out, "%s (%s)\n", c.DisplayName, c.Intent)
				if c.Description != "" {
					fmt.Fprintf(out, "  %s\n", c.Description)
				}
				for _, ex := range c.Examples {
					fmt.Fprintf(out, "    %s\n", ex)
				}
			}
			return nil
		},
	}
}

// loadCatalog reads only the catalogue, so listing commands never opens the
// database.
func loadCatalog(opts *rootOptions) (*registry.Catalog, error) {
	if opts.configPath == "" {
		return registry.Default(), nil
	}
	cfg, err := config.LoadFromFile(opts.configPath)
	if err != nil {
		return nil, err
	}
	return registry.LoadCatalog(cfg.Router.CatalogPath)
}
