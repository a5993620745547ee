// Package noteid assigns identities to notes.
//
// New notes get a random UUID. Notes written before ids existed are given an id
// derived from their content so the same legacy note always maps to the same id.
package noteid

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/conorfennell/shownotes/internal/domain"
)

const legacyPrefix = "legacy-"

// New returns a fresh note id.
func New() string {
	return uuid.NewString()
}

// Normalize joins the identifying fields of a note, one per line.
// Line endings are normalised so a note round-tripped through Windows tools
// keeps its id.
func Normalize(routineKey string, n domain.Note) string {
	normalizePart := func(part string) string {
		return strings.ReplaceAll(part, "\r\n", "\n")
	}
	return strings.Join([]string{
		normalizePart(routineKey),
		normalizePart(n.Staff),
		normalizePart(n.Text),
		normalizePart(n.Time),
	}, "\n")
}

// Derive returns a content-based id for a note stored without one. occurrence
// tells apart notes of one bucket with identical content; occurrence 0 hashes the
// content alone.
func Derive(routineKey string, n domain.Note, occurrence int) string {
	content := Normalize(routineKey, n)
	if occurrence > 0 {
		content += "\n" + strconv.Itoa(occurrence)
	}
	sum := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%s%x", legacyPrefix, sum[:12])
}

// FillBucket assigns derived ids, in order, to the notes of one bucket that lack
// one. existing holds notes already stored ahead of them in the same bucket; their
// ids are never reused. It reports whether anything changed.
func FillBucket(routineKey string, notes []domain.Note, existing ...domain.Note) bool {
	taken := make(map[string]bool, len(notes)+len(existing))
	for _, n := range existing {
		taken[n.ID] = true
	}
	for _, n := range notes {
		if n.ID != "" {
			taken[n.ID] = true
		}
	}

	changed := false
	for i := range notes {
		if notes[i].ID != "" {
			continue
		}
		occurrence := 0
		id := Derive(routineKey, notes[i], occurrence)
		for taken[id] {
			occurrence++
			id = Derive(routineKey, notes[i], occurrence)
		}
		notes[i].ID = id
		taken[id] = true
		changed = true
	}
	return changed
}

// Fill assigns derived ids to every note in b that lacks one. It reports whether
// anything changed.
func Fill(b domain.Buckets) bool {
	changed := false
	for key, notes := range b {
		if FillBucket(key, notes) {
			changed = true
		}
	}
	return changed
}
