package catalog

import (
	"fmt"

	"github.com/conorfennell/shownotes/internal/domain"
)

// Label renders a routine the way exports show it: "<title> - <performers>".
func Label(r domain.Routine) string {
	return r.Title + " - " + r.Performers
}

// DisplayLabel renders a routine for pickers, e.g. "#3 - Dark Outside (Isabella Acro)".
func DisplayLabel(r domain.Routine) string {
	if r.IsBreak() {
		return domain.BreakTitle
	}
	return fmt.Sprintf("#%d - %s (%s)", r.Seq, r.Title, r.Performers)
}
