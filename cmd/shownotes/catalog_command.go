package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conorfennell/shownotes/internal/catalog"
	"github.com/conorfennell/shownotes/internal/domain"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	var show string
	var file string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print a show's routines, or preview a routine list file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var routines []domain.Routine
			var err error
			if file != "" {
				routines, err = catalog.ParseFile(file)
			} else {
				routines, err = ctx.app.Registry.Catalog(cmd.Context(), ctx.showFlag(show))
			}
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(routines))
			for _, r := range routines {
				if r.IsBreak() {
					rows = append(rows, []string{"", domain.BreakTitle, ""})
					continue
				}
				rows = append(rows, []string{r.Key(), r.Title, r.Performers})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "Title", "Performers"},
				rows,
				[]columnAlignment{alignRight},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&show, "show", "", "Show name (defaults to the default show)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Parse and print a routine list file instead")
	cmd.MarkFlagsMutuallyExclusive("show", "file")
	return cmd
}
