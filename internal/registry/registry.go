// Package registry keeps the list of shows and where each show's routines come from.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/conorfennell/shownotes/internal/catalog"
	"github.com/conorfennell/shownotes/internal/domain"
	"github.com/conorfennell/shownotes/internal/fileutil"
	"github.com/conorfennell/shownotes/internal/history"
)

// NotesDropper deletes the note log of a show.
type NotesDropper interface {
	Drop(ctx context.Context, show string) error
}

// Registry is the persisted show list. Every mutation rewrites the whole document
// while holding both an in-process mutex and a file lock.
type Registry struct {
	path        string
	defaultShow string
	notes       NotesDropper
	recorder    history.Recorder
	now         func() time.Time

	mu sync.Mutex
}

// Option configures a Registry.
type Option func(*Registry)

// WithRecorder records every registry write in history.
func WithRecorder(r history.Recorder) Option {
	return func(reg *Registry) { reg.recorder = r }
}

// WithClock overrides the time source for creation dates.
func WithClock(now func() time.Time) Option {
	return func(reg *Registry) { reg.now = now }
}

// New returns a registry stored at path. defaultShow is the built-in show seeded
// whenever the registry is missing or becomes empty.
func New(path, defaultShow string, notes NotesDropper, opts ...Option) *Registry {
	r := &Registry{
		path:        path,
		defaultShow: defaultShow,
		notes:       notes,
		recorder:    history.Nop{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultShow returns the name of the show seeded into an empty registry.
func (r *Registry) DefaultShow() string {
	return r.defaultShow
}

func (r *Registry) seeded() *document {
	d := newDocument()
	d.put(r.defaultShow, entryFor(domain.NewBuiltinShow(r.defaultShow, r.now())))
	return d
}

func (r *Registry) read() (*document, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return r.seeded(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read registry %s: %w", r.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return r.seeded(), nil
	}
	d := newDocument()
	if err := json.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("failed to decode registry %s: %w", r.path, err)
	}
	if len(d.names) == 0 {
		return r.seeded(), nil
	}
	return d, nil
}

func (r *Registry) write(ctx context.Context, d *document, message string) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode registry: %w", err)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		return fmt.Errorf("failed to format registry: %w", err)
	}
	if err := fileutil.WriteFileAtomic(r.path, pretty.Bytes(), 0o644); err != nil {
		return err
	}
	return r.recorder.Record(ctx, message, r.path)
}

// update runs a locked read-modify-write of the registry.
func (r *Registry) update(ctx context.Context, fn func(*document) (string, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return fileutil.WithFileLock(ctx, r.path+".lock", func() error {
		d, err := r.read()
		if err != nil {
			return err
		}
		message, err := fn(d)
		if err != nil {
			return err
		}
		return r.write(ctx, d, message)
	})
}

// List returns the show names in persisted order.
func (r *Registry) List(_ context.Context) ([]string, error) {
	d, err := r.read()
	if err != nil {
		return nil, err
	}
	return append([]string(nil), d.names...), nil
}

// Shows returns every show in persisted order.
func (r *Registry) Shows(_ context.Context) ([]domain.Show, error) {
	d, err := r.read()
	if err != nil {
		return nil, err
	}
	shows := make([]domain.Show, 0, len(d.names))
	for _, name := range d.names {
		shows = append(shows, d.entries[name].show(name))
	}
	return shows, nil
}

// Get returns a single show.
func (r *Registry) Get(_ context.Context, name string) (domain.Show, error) {
	d, err := r.read()
	if err != nil {
		return domain.Show{}, err
	}
	e, ok := d.entries[name]
	if !ok {
		return domain.Show{}, fmt.Errorf("%w: %q", domain.ErrShowNotFound, name)
	}
	return e.show(name), nil
}

// Catalog resolves the routine list for a show.
func (r *Registry) Catalog(ctx context.Context, name string) ([]domain.Routine, error) {
	show, err := r.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return catalog.Resolve(show), nil
}

// Create parses rawRoutines and adds a new custom show.
func (r *Registry) Create(ctx context.Context, name, rawRoutines string) (domain.Show, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Show{}, domain.ErrEmptyName
	}
	routines, err := catalog.ParseText(rawRoutines)
	if err != nil {
		return domain.Show{}, fmt.Errorf("failed to parse routines: %w", err)
	}
	if len(routines) == 0 {
		return domain.Show{}, domain.ErrEmptyCatalog
	}

	show := domain.Show{
		Name:     name,
		Source:   domain.SourceCustom,
		Routines: routines,
		Created:  r.now().Format(domain.DateLayout),
	}
	err = r.update(ctx, func(d *document) (string, error) {
		if d.has(name) {
			return "", domain.ErrDuplicateShow
		}
		d.put(name, entryFor(show))
		return "Create show " + name, nil
	})
	if err != nil {
		return domain.Show{}, err
	}
	slog.Info("Show created", "show", name, "routines", len(routines))
	return show, nil
}

// Delete removes a show and permanently deletes its notes. confirmation must equal
// name exactly. Deleting the last show reseeds the default built-in show.
//
// The registry entry goes first: a failed notes drop leaves orphaned notes behind
// an unlisted show rather than a listed show with its notes gone. The error is
// returned so the caller can retry.
func (r *Registry) Delete(ctx context.Context, name, confirmation string) error {
	if confirmation != name {
		return domain.ErrConfirmationMismatch
	}

	err := r.update(ctx, func(d *document) (string, error) {
		if !d.has(name) {
			return "", fmt.Errorf("%w: %q", domain.ErrShowNotFound, name)
		}
		d.remove(name)
		if len(d.names) == 0 {
			slog.Info("Registry empty, reseeding default show", "show", r.defaultShow)
			d.put(r.defaultShow, entryFor(domain.NewBuiltinShow(r.defaultShow, r.now())))
		}
		return "Delete show " + name, nil
	})
	if err != nil {
		return err
	}
	if err := r.notes.Drop(ctx, name); err != nil {
		return fmt.Errorf("show %q removed but its notes were not deleted: %w", name, err)
	}
	slog.Info("Show deleted", "show", name)
	return nil
}
