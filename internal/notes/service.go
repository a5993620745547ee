package notes

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/conorfennell/shownotes/internal/domain"
	"github.com/conorfennell/shownotes/internal/noteid"
)

// Service is the notes store used by the web and CLI layers.
type Service struct {
	backend Backend
	legacy  Legacy
	now     func() time.Time

	mu    sync.Mutex
	locks map[string]*showLock
}

// showLock serialises writers of one show. refs counts holders and waiters so the
// entry can be removed once nobody uses it.
type showLock struct {
	mu   sync.Mutex
	refs int
}

// Option configures a Service.
type Option func(*Service)

// WithLegacy enables the read fallback to a pre-multi-show notes file.
func WithLegacy(l Legacy) Option {
	return func(s *Service) { s.legacy = l }
}

// WithClock overrides the time source used for note timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a notes service on top of backend.
func NewService(backend Backend, opts ...Option) *Service {
	s := &Service{
		backend: backend,
		now:     time.Now,
		locks:   make(map[string]*showLock),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the underlying persistence layer.
func (s *Service) Backend() Backend {
	return s.backend
}

func (s *Service) lock(show string) func() {
	s.mu.Lock()
	l, ok := s.locks[show]
	if !ok {
		l = &showLock{}
		s.locks[show] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, show)
		}
		s.mu.Unlock()
	}
}

// Load returns the notes for show. A read failure is returned alongside an empty,
// non-nil mapping so callers can keep rendering.
func (s *Service) Load(ctx context.Context, show string) (domain.Buckets, error) {
	b, _, err := s.load(ctx, show)
	if err != nil {
		slog.Warn("Failed to load notes", "show", show, "error", err)
		return domain.Buckets{}, err
	}
	return b, nil
}

// load also reports whether the result came from the legacy file.
func (s *Service) load(ctx context.Context, show string) (domain.Buckets, bool, error) {
	if s.legacy.enabled() && show == s.legacy.ShowName {
		exists, err := s.backend.Exists(ctx, show)
		if err != nil {
			return nil, false, fmt.Errorf("failed to check notes for %q: %w", show, err)
		}
		if !exists {
			b, err := s.legacy.read()
			if err != nil {
				return nil, false, err
			}
			return b, true, nil
		}
	}

	b, err := s.backend.Load(ctx, show)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load notes for %q: %w", show, err)
	}
	if b == nil {
		b = domain.Buckets{}
	}
	return b, false, nil
}

// Append adds a note to a routine's bucket and returns it with its id and timestamp.
func (s *Service) Append(ctx context.Context, show, routineKey, staff, text string) (domain.Note, error) {
	staff = strings.TrimSpace(staff)
	text = strings.TrimSpace(text)
	if staff == "" {
		return domain.Note{}, domain.ErrEmptyStaff
	}
	if text == "" {
		return domain.Note{}, domain.ErrEmptyText
	}
	seq, err := domain.ParseRoutineKey(routineKey)
	if err != nil {
		return domain.Note{}, fmt.Errorf("%w: %v", domain.ErrRoutineNotFound, err)
	}
	if seq == 0 {
		return domain.Note{}, domain.ErrBreakRoutine
	}

	unlock := s.lock(show)
	defer unlock()

	if err := s.materializeLegacy(ctx, show); err != nil {
		return domain.Note{}, err
	}

	note := domain.Note{
		ID:    noteid.New(),
		Staff: staff,
		Text:  text,
		Time:  domain.FormatTime(s.now()),
	}
	if err := s.backend.Insert(ctx, show, routineKey, note); err != nil {
		return domain.Note{}, fmt.Errorf("failed to save note for %q %s: %w", show, routineKey, err)
	}
	slog.Info("Note saved", "show", show, "routine", routineKey, "staff", staff, "id", note.ID)
	return note, nil
}

// materializeLegacy copies the legacy notes into the backend the first time the
// legacy show is written, so the fallback stops applying without losing them.
func (s *Service) materializeLegacy(ctx context.Context, show string) error {
	b, fromLegacy, err := s.load(ctx, show)
	if err != nil {
		return err
	}
	if !fromLegacy || len(b) == 0 {
		return nil
	}
	slog.Info("Copying legacy notes into per-show storage", "show", show, "notes", b.Count())
	for _, key := range SortedKeys(b) {
		if err := s.backend.Insert(ctx, show, key, b[key]...); err != nil {
			return fmt.Errorf("failed to copy legacy notes for %s: %w", key, err)
		}
	}
	return nil
}

// Delete removes the note with the given id. It returns domain.ErrNoteNotFound if
// the note has already gone.
func (s *Service) Delete(ctx context.Context, show, routineKey, id string) error {
	unlock := s.lock(show)
	defer unlock()

	if err := s.materializeLegacy(ctx, show); err != nil {
		return err
	}

	if err := s.backend.Remove(ctx, show, routineKey, id); err != nil {
		return fmt.Errorf("failed to delete note %s from %q %s: %w", id, show, routineKey, err)
	}
	slog.Info("Note deleted", "show", show, "routine", routineKey, "id", id)
	return nil
}

// Drop permanently deletes every note of show. The legacy show is left with an
// empty log so the legacy file is never read for it again.
func (s *Service) Drop(ctx context.Context, show string) error {
	unlock := s.lock(show)
	defer unlock()

	if err := s.backend.Drop(ctx, show); err != nil {
		return fmt.Errorf("failed to delete notes for %q: %w", show, err)
	}
	if s.legacy.enabled() && show == s.legacy.ShowName {
		if err := s.backend.Create(ctx, show); err != nil {
			return fmt.Errorf("failed to retire legacy notes for %q: %w", show, err)
		}
	}
	slog.Info("Note log deleted", "show", show)
	return nil
}
