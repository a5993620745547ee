// Package review builds the filtered, searchable view of a show's notes.
package review

import (
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/conorfennell/shownotes/internal/catalog"
	"github.com/conorfennell/shownotes/internal/domain"
)

// AllStaff is the staff filter value that disables filtering.
const AllStaff = ""

// Filter narrows the review view.
type Filter struct {
	Staff string // exact staff name, or AllStaff
	Query string // case-insensitive substring
}

// Section is one entry of the review view: either a break marker or a routine with
// its matching notes.
type Section struct {
	Routine domain.Routine
	Label   string
	Notes   []domain.Note
}

// IsBreak reports whether the section marks an intermission.
func (s Section) IsBreak() bool {
	return s.Routine.IsBreak()
}

// StaffNames returns the distinct staff names in buckets, sorted case-insensitively.
func StaffNames(buckets domain.Buckets) []string {
	seen := make(map[string]bool)
	var names []string
	for _, notes := range buckets {
		for _, n := range notes {
			if !seen[n.Staff] {
				seen[n.Staff] = true
				names = append(names, n.Staff)
			}
		}
	}
	collate.New(language.English, collate.IgnoreCase).SortStrings(names)
	return names
}

// Build returns the review sections in catalog order. Routines with no notes left
// after the staff filter are omitted; a query keeps a routine if it matches the
// routine label or any remaining note's staff or text. Breaks are always kept.
func Build(routines []domain.Routine, buckets domain.Buckets, f Filter) []Section {
	query := strings.ToLower(strings.TrimSpace(f.Query))

	var sections []Section
	for _, r := range routines {
		if r.IsBreak() {
			sections = append(sections, Section{Routine: r, Label: domain.BreakTitle})
			continue
		}

		notes := filterStaff(buckets[r.Key()], f.Staff)
		if len(notes) == 0 {
			continue
		}

		label := catalog.DisplayLabel(r)
		if query != "" && !matches(query, label, notes) {
			continue
		}
		sections = append(sections, Section{Routine: r, Label: label, Notes: notes})
	}
	return sections
}

// Count returns the number of notes across sections.
func Count(sections []Section) int {
	n := 0
	for _, s := range sections {
		n += len(s.Notes)
	}
	return n
}

func filterStaff(notes []domain.Note, staff string) []domain.Note {
	if staff == AllStaff {
		return notes
	}
	var out []domain.Note
	for _, n := range notes {
		if n.Staff == staff {
			out = append(out, n)
		}
	}
	return out
}

func matches(query, label string, notes []domain.Note) bool {
	if strings.Contains(strings.ToLower(label), query) {
		return true
	}
	for _, n := range notes {
		if strings.Contains(strings.ToLower(n.Staff), query) || strings.Contains(strings.ToLower(n.Text), query) {
			return true
		}
	}
	return false
}
