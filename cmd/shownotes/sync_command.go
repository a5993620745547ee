package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/conorfennell/shownotes/internal/config"
	notesync "github.com/conorfennell/shownotes/internal/sync"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var from, to string
	var shows []string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Copy notes missing from one backend into another",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if from == to {
				return errors.New("--from and --to must name different backends")
			}
			src, err := ctx.app.OpenBackend(cmd.Context(), from)
			if err != nil {
				return fmt.Errorf("failed to open %s backend: %w", from, err)
			}
			dst, err := ctx.app.OpenBackend(cmd.Context(), to)
			if err != nil {
				return fmt.Errorf("failed to open %s backend: %w", to, err)
			}

			if len(shows) == 0 {
				registered, err := ctx.app.Registry.List(cmd.Context())
				if err != nil {
					return err
				}
				if shows, err = notesync.Shows(cmd.Context(), registered, src); err != nil {
					return err
				}
			}

			reports := notesync.Run(cmd.Context(), shows, src, dst)
			rows := make([][]string, 0, len(reports))
			var failed int
			for _, r := range reports {
				status := "ok"
				if r.Err != nil {
					status = r.Err.Error()
					failed++
				}
				rows = append(rows, []string{r.Show, strconv.Itoa(r.Copied), strconv.Itoa(r.Skipped), status})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Show", "Copied", "Skipped", "Status"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
			))
			if failed > 0 {
				return fmt.Errorf("%d of %d shows failed to sync", failed, len(reports))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", config.BackendFile, "Source backend: file, sqlite or sheets")
	cmd.Flags().StringVar(&to, "to", config.BackendSQLite, "Destination backend: file, sqlite or sheets")
	cmd.Flags().StringSliceVar(&shows, "show", nil, "Shows to sync (defaults to every registered show plus any the source holds notes for)")
	return cmd
}
