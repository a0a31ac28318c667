package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"task-command-router/internal/chat"
	"task-command-router/internal/common/logger"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ask [message...]",
		Short: "Send one message to the router",
		Example: `  taskchat ask add task "Buy milk"
  taskchat ask complete task 1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			router, log, err := buildRouter(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer router.Close()
			defer logger.Sync(log)

			resp := router.Chat.Handle(cmd.Context(), strings.Join(args, " "))
			if err := printResponse(cmd.OutOrStdout(), resp, opts.jsonOut); err != nil {
				return err
			}
			if resp.Status == chat.StatusError {
				return errSilentFailure
			}
			return nil
		},
	}
}

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Read messages from stdin until EOF or 'exit'",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			router, log, err := buildRouter(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer router.Close()
			defer logger.Sync(log)

			out := cmd.OutOrStdout()
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					fmt.Fprintln(out)
					return scanner.Err()
				}

				line := strings.TrimSpace(scanner.Text())
				switch strings.ToLower(line) {
				case "":
					continue
				case "exit", "quit":
					return nil
				}

				if err := printResponse(out, router.Chat.Handle(cmd.Context(), line), opts.jsonOut); err != nil {
					return err
				}
			}
		},
	}
}

// errSilentFailure sets a non-zero exit status after the response has
// already been printed.
var errSilentFailure = silentError{}

type silentError struct{}

func (silentError) Error() string { return "" }

func printResponse(w io.Writer, resp chat.Response, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	fmt.Fprintln(w, resp.Message)
	if raw, ok := resp.Data["suggestions"].([]string); ok && len(raw) > 0 {
		fmt.Fprintf(w, "Did you mean: %s?\n", strings.Join(raw, ", "))
	}
	return nil
}
