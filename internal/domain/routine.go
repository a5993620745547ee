package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// BreakTitle is the title every break entry carries.
const BreakTitle = "--- BREAK ---"

// Routine is one numbered performance segment of a show.
// A Seq of 0 marks an intermission break, which never takes notes.
type Routine struct {
	Seq        int
	Title      string
	Performers string
}

// Break returns the placeholder routine used for intermissions.
func Break() Routine {
	return Routine{Seq: 0, Title: BreakTitle}
}

// IsBreak reports whether r is an intermission placeholder.
func (r Routine) IsBreak() bool {
	return r.Seq == 0
}

// Key returns the storage key for the routine's notes, e.g. "#12".
func (r Routine) Key() string {
	return RoutineKey(r.Seq)
}

// RoutineKey formats a sequence number as a notes bucket key.
func RoutineKey(seq int) string {
	return "#" + strconv.Itoa(seq)
}

// ParseRoutineKey is the inverse of RoutineKey.
func ParseRoutineKey(key string) (int, error) {
	if !strings.HasPrefix(key, "#") {
		return 0, fmt.Errorf("invalid routine key %q", key)
	}
	seq, err := strconv.Atoi(key[1:])
	if err != nil || seq < 0 {
		return 0, fmt.Errorf("invalid routine key %q", key)
	}
	return seq, nil
}
