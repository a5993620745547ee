package notes

import (
	"sort"

	"github.com/conorfennell/shownotes/internal/domain"
)

// SortedKeys returns the routine keys of b ordered by sequence number. Keys that do
// not parse sort last, alphabetically.
func SortedKeys(b domain.Buckets) []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		si, errI := domain.ParseRoutineKey(keys[i])
		sj, errJ := domain.ParseRoutineKey(keys[j])
		switch {
		case errI == nil && errJ == nil:
			return si < sj
		case errI == nil:
			return true
		case errJ == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}
