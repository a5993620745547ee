package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent changes recorded in the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ctx.app.History == nil {
				return errors.New("history is disabled; enable it with --history or history.enabled")
			}
			messages, err := ctx.app.History.Log(limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, m := range messages {
				fmt.Fprintln(out, strings.TrimSpace(m))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	return cmd
}
