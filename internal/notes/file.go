package notes

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/conorfennell/shownotes/internal/domain"
	"github.com/conorfennell/shownotes/internal/fileutil"
	"github.com/conorfennell/shownotes/internal/history"
)

// FileBackend keeps one JSON document per show under dir.
type FileBackend struct {
	dir      string
	recorder history.Recorder
}

// NewFileBackend stores notes files in dir. recorder may be nil.
func NewFileBackend(dir string, recorder history.Recorder) *FileBackend {
	if recorder == nil {
		recorder = history.Nop{}
	}
	return &FileBackend{dir: dir, recorder: recorder}
}

// Path returns the notes file used for show.
func (f *FileBackend) Path(show string) string {
	return filepath.Join(f.dir, "notes_"+fileutil.SafeName(show)+".json")
}

func (f *FileBackend) lockPath(show string) string {
	return f.Path(show) + ".lock"
}

// Exists implements Backend.
func (f *FileBackend) Exists(_ context.Context, show string) (bool, error) {
	_, err := os.Stat(f.Path(show))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat notes file: %w", err)
	}
	return true, nil
}

// Load implements Backend.
func (f *FileBackend) Load(_ context.Context, show string) (domain.Buckets, error) {
	return f.read(show)
}

func (f *FileBackend) read(show string) (domain.Buckets, error) {
	path := f.Path(show)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return domain.Buckets{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	b, err := decodeBuckets(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return b, nil
}

// update performs a locked read-modify-write of the show's document.
func (f *FileBackend) update(ctx context.Context, show, message string, mutate func(domain.Buckets) error) error {
	path := f.Path(show)
	err := fileutil.WithFileLock(ctx, f.lockPath(show), func() error {
		b, err := f.read(show)
		if err != nil {
			return err
		}
		if err := mutate(b); err != nil {
			return err
		}
		data, err := encodeBuckets(b)
		if err != nil {
			return fmt.Errorf("failed to encode notes: %w", err)
		}
		return fileutil.WriteFileAtomic(path, data, 0o644)
	})
	if err != nil {
		return err
	}
	return f.recorder.Record(ctx, message, path)
}

// Create implements Backend.
func (f *FileBackend) Create(ctx context.Context, show string) error {
	return f.update(ctx, show, "Create notes for "+show, func(domain.Buckets) error { return nil })
}

// Insert implements Backend.
func (f *FileBackend) Insert(ctx context.Context, show, routineKey string, notes ...domain.Note) error {
	if len(notes) == 0 {
		return nil
	}
	msg := fmt.Sprintf("Add %d note(s) to %s %s", len(notes), show, routineKey)
	return f.update(ctx, show, msg, func(b domain.Buckets) error {
		b[routineKey] = append(b[routineKey], notes...)
		return nil
	})
}

// Remove implements Backend.
func (f *FileBackend) Remove(ctx context.Context, show, routineKey, id string) error {
	msg := fmt.Sprintf("Delete note %s from %s %s", id, show, routineKey)
	return f.update(ctx, show, msg, func(b domain.Buckets) error {
		if !b.Remove(routineKey, id) {
			return domain.ErrNoteNotFound
		}
		return nil
	})
}

// Drop implements Backend.
func (f *FileBackend) Drop(ctx context.Context, show string) error {
	path := f.Path(show)
	err := fileutil.WithFileLock(ctx, f.lockPath(show), func() error {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	_ = os.Remove(f.lockPath(show))
	return f.recorder.Record(ctx, "Delete notes for "+show, path)
}
