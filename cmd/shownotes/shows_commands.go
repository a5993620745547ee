package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func newShowsCommand(ctx *commandContext) *cobra.Command {
	showsCmd := &cobra.Command{
		Use:   "shows",
		Short: "Manage recital shows",
	}

	showsCmd.AddCommand(newShowsListCommand(ctx))
	showsCmd.AddCommand(newShowsCreateCommand(ctx))
	showsCmd.AddCommand(newShowsDeleteCommand(ctx))

	return showsCmd
}

func newShowsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List shows in registry order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			shows, err := ctx.app.Registry.Shows(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(shows))
			for _, s := range shows {
				routines, err := ctx.app.Registry.Catalog(cmd.Context(), s.Name)
				if err != nil {
					return err
				}
				buckets, loadErr := ctx.app.Notes.Load(cmd.Context(), s.Name)
				notes := strconv.Itoa(buckets.Count())
				if loadErr != nil {
					notes = "error"
				}
				rows = append(rows, []string{s.Name, string(s.Source), strconv.Itoa(len(routines)), notes, s.Created})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Show", "Source", "Routines", "Notes", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
}

func newShowsCreateCommand(ctx *commandContext) *cobra.Command {
	var file string
	var routines string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a show from a routine list",
		Long: "Create a show from a routine list, one routine per line as \"Title | Performers\" " +
			"or \"Title - Performers\". A line reading BREAK or --- marks the intermission.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := routines
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", file, err)
				}
				text = string(data)
			}

			show, err := ctx.app.Registry.Create(cmd.Context(), args[0], text)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created show %q with %d routines\n", show.Name, len(show.Routines))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "File containing the routine list")
	cmd.Flags().StringVar(&routines, "routines", "", "Routine list text")
	cmd.MarkFlagsMutuallyExclusive("file", "routines")
	return cmd
}

func newShowsDeleteCommand(ctx *commandContext) *cobra.Command {
	var confirm string

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a show and all of its notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.app.Registry.Delete(cmd.Context(), args[0], confirm); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted show %q\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&confirm, "confirm", "", "Retype the show name to confirm deletion")
	return cmd
}
