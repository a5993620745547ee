package main

import (
	"bytes"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/conorfennell/shownotes/internal/export"
	"github.com/conorfennell/shownotes/internal/fileutil"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var show string
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a CSV backup of a show's notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ctx.showFlag(show)
			routines, err := ctx.app.Registry.Catalog(cmd.Context(), name)
			if err != nil {
				return err
			}
			buckets, err := ctx.app.Notes.Load(cmd.Context(), name)
			if err != nil {
				return err
			}

			cols := ctx.app.Columns
			if out == "-" {
				return export.WriteCSV(cmd.OutOrStdout(), routines, buckets, cols)
			}

			var buf bytes.Buffer
			if err := export.WriteCSV(&buf, routines, buckets, cols); err != nil {
				return err
			}
			if out == "" {
				out = export.Filename(time.Now())
			}
			if err := fileutil.WriteFileAtomic(out, buf.Bytes(), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", formatCount(buckets.Count(), "note"), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&show, "show", "", "Show name (defaults to the default show)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file, or - for stdout (defaults to a timestamped name)")
	return cmd
}
