package domain

import "time"

// TimeLayout is how note timestamps are rendered and persisted.
const TimeLayout = "Jan 02, 2006 03:04 PM"

// Note is a single staff annotation attached to a routine.
type Note struct {
	ID    string `json:"id,omitempty"`
	Staff string `json:"staff"`
	Text  string `json:"note"`
	Time  string `json:"time"`
}

// FormatTime renders t in the persisted note timestamp format.
func FormatTime(t time.Time) string {
	return t.Local().Format(TimeLayout)
}

// Buckets maps a routine key to the ordered notes for that routine.
type Buckets map[string][]Note

// Count returns the total number of notes across all buckets.
func (b Buckets) Count() int {
	n := 0
	for _, notes := range b {
		n += len(notes)
	}
	return n
}

// Clone returns a deep copy of b.
func (b Buckets) Clone() Buckets {
	out := make(Buckets, len(b))
	for k, notes := range b {
		out[k] = append([]Note(nil), notes...)
	}
	return out
}

// Remove deletes the note with the given id from the bucket for key.
// An emptied bucket is removed from the map. It reports whether a note was removed.
func (b Buckets) Remove(key, id string) bool {
	notes := b[key]
	for i, n := range notes {
		if n.ID != id {
			continue
		}
		notes = append(notes[:i:i], notes[i+1:]...)
		if len(notes) == 0 {
			delete(b, key)
		} else {
			b[key] = notes
		}
		return true
	}
	return false
}
