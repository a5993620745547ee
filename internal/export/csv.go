// Package export serialises a show's notes as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/conorfennell/shownotes/internal/catalog"
	"github.com/conorfennell/shownotes/internal/domain"
)

// Columns selects the optional CSV columns.
type Columns struct {
	Staff bool
}

// DefaultColumns includes every column.
var DefaultColumns = Columns{Staff: true}

// Header returns the header row for cols.
func Header(cols Columns) []string {
	if cols.Staff {
		return []string{"Routine", "Staff", "Note", "Time"}
	}
	return []string{"Routine", "Note", "Time"}
}

// Rows returns the header followed by one row per note, in catalog order.
// Breaks and routines without notes produce no rows.
func Rows(routines []domain.Routine, buckets domain.Buckets, cols Columns) [][]string {
	rows := [][]string{Header(cols)}
	for _, r := range routines {
		if r.IsBreak() {
			continue
		}
		for _, n := range buckets[r.Key()] {
			if cols.Staff {
				rows = append(rows, []string{catalog.Label(r), n.Staff, n.Text, n.Time})
			} else {
				rows = append(rows, []string{catalog.Label(r), n.Text, n.Time})
			}
		}
	}
	return rows
}

// WriteCSV writes the export to w.
func WriteCSV(w io.Writer, routines []domain.Routine, buckets domain.Buckets, cols Columns) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(Rows(routines, buckets, cols)); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// Filename returns the download name for an export taken at t.
func Filename(t time.Time) string {
	return "show_notes_backup_" + t.Format("20060102_150405") + ".csv"
}
