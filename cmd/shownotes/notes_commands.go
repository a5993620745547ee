package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conorfennell/shownotes/internal/catalog"
	"github.com/conorfennell/shownotes/internal/domain"
	"github.com/conorfennell/shownotes/internal/review"
)

func newNotesCommand(ctx *commandContext) *cobra.Command {
	notesCmd := &cobra.Command{
		Use:   "notes",
		Short: "List, add and delete notes",
	}

	notesCmd.AddCommand(newNotesListCommand(ctx))
	notesCmd.AddCommand(newNotesAddCommand(ctx))
	notesCmd.AddCommand(newNotesDeleteCommand(ctx))

	return notesCmd
}

// routineKeyArg accepts "12" or "#12".
func routineKeyArg(arg string) (string, error) {
	seq, err := domain.ParseRoutineKey("#" + strings.TrimPrefix(strings.TrimSpace(arg), "#"))
	if err != nil {
		return "", err
	}
	return domain.RoutineKey(seq), nil
}

func newNotesListCommand(ctx *commandContext) *cobra.Command {
	var show string
	var filter review.Filter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show notes in routine order",
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

			sections := review.Build(routines, buckets, filter)
			var rows [][]string
			for _, s := range sections {
				for _, n := range s.Notes {
					rows = append(rows, []string{s.Routine.Key(), s.Label, n.Staff, n.Text, n.Time, n.ID})
				}
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No notes yet.")
				return nil
			}
			fmt.Fprintln(out, renderTable([]string{"Key", "Routine", "Staff", "Note", "Time", "ID"}, rows, nil))
			fmt.Fprintf(out, "Showing %d of %d notes\n", len(rows), buckets.Count())
			return nil
		},
	}

	cmd.Flags().StringVar(&show, "show", "", "Show name (defaults to the default show)")
	cmd.Flags().StringVar(&filter.Staff, "staff", review.AllStaff, "Only notes by this staff member")
	cmd.Flags().StringVarP(&filter.Query, "query", "q", "", "Case-insensitive search")
	return cmd
}

func newNotesAddCommand(ctx *commandContext) *cobra.Command {
	var show string
	var staff string

	cmd := &cobra.Command{
		Use:   "add <routine> <note>",
		Short: "Add a note to a routine, e.g. add 12 \"Great energy\"",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := routineKeyArg(args[0])
			if err != nil {
				return err
			}
			name := ctx.showFlag(show)
			routines, err := ctx.app.Registry.Catalog(cmd.Context(), name)
			if err != nil {
				return err
			}
			routine, ok := catalog.Find(routines, key)
			if !ok {
				return fmt.Errorf("%w: %s in %q", domain.ErrRoutineNotFound, key, name)
			}

			note, err := ctx.app.Notes.Append(cmd.Context(), name, key, staff, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved note %s for %s\n", note.ID, catalog.DisplayLabel(routine))
			return nil
		},
	}

	cmd.Flags().StringVar(&show, "show", "", "Show name (defaults to the default show)")
	cmd.Flags().StringVar(&staff, "staff", "", "Your name")
	return cmd
}

func newNotesDeleteCommand(ctx *commandContext) *cobra.Command {
	var show string

	cmd := &cobra.Command{
		Use:   "delete <routine> <id>",
		Short: "Delete a note by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := routineKeyArg(args[0])
			if err != nil {
				return err
			}
			name := ctx.showFlag(show)
			if err := ctx.app.Notes.Delete(cmd.Context(), name, key, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted note %s from %s\n", args[1], key)
			return nil
		},
	}

	cmd.Flags().StringVar(&show, "show", "", "Show name (defaults to the default show)")
	return cmd
}

func formatCount(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
