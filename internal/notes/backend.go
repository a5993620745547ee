// Package notes stores staff notes per show.
//
// The Service enforces validation, note identity, per-show write serialisation and
// the legacy single-file fallback. Persistence is delegated to a Backend: local JSON
// files, SQLite or a Google Sheets spreadsheet.
package notes

import (
	"context"

	"github.com/conorfennell/shownotes/internal/domain"
)

// Backend persists the note log of each show.
//
// Implementations need not serialise writers; the Service guarantees that mutating
// calls for one show never overlap within a process.
type Backend interface {
	// Exists reports whether the backend holds a note log for show, even an empty one.
	Exists(ctx context.Context, show string) (bool, error)
	// Create records an empty note log for show unless one exists.
	Create(ctx context.Context, show string) error
	// Load returns the show's notes. A missing log yields an empty mapping.
	Load(ctx context.Context, show string) (domain.Buckets, error)
	// Insert appends notes, in order, to the bucket for routineKey.
	Insert(ctx context.Context, show, routineKey string, notes ...domain.Note) error
	// Remove deletes the note with id from the bucket, returning domain.ErrNoteNotFound
	// if it is not there.
	Remove(ctx context.Context, show, routineKey, id string) error
	// Drop deletes the show's entire note log.
	Drop(ctx context.Context, show string) error
}
