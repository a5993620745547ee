package notes

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/shownotes/internal/domain"
)

const legacyShow = "Comp Show 2026"

func fixedClock() time.Time {
	return time.Date(2026, 1, 1, 17, 0, 0, 0, time.Local)
}

func newTestService(t *testing.T, opts ...Option) (*Service, *FileBackend, string) {
	t.Helper()
	dir := t.TempDir()
	backend := NewFileBackend(filepath.Join(dir, "notes"), nil)
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	return NewService(backend, opts...), backend, dir
}

func TestAppend(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	before, err := svc.Load(ctx, "Spring")
	require.NoError(t, err)
	require.Empty(t, before["#1"])

	note, err := svc.Append(ctx, "Spring", "#1", "  Jamie ", "\tGreat energy\n")
	require.NoError(t, err)
	assert.NotEmpty(t, note.ID)
	assert.Equal(t, "Jamie", note.Staff)
	assert.Equal(t, "Great energy", note.Text)
	assert.Equal(t, "Jan 01, 2026 05:00 PM", note.Time)

	after, err := svc.Load(ctx, "Spring")
	require.NoError(t, err)
	require.Len(t, after["#1"], 1)
	assert.Equal(t, note, after["#1"][0])

	second, err := svc.Append(ctx, "Spring", "#1", "Alex", "Spacing")
	require.NoError(t, err)
	after, err = svc.Load(ctx, "Spring")
	require.NoError(t, err)
	require.Len(t, after["#1"], 2)
	assert.Equal(t, second.ID, after["#1"][1].ID, "insertion order is preserved")
}

func TestAppendValidation(t *testing.T) {
	svc, backend, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		key   string
		staff string
		text  string
		want  error
	}{
		{"empty staff", "#1", "   ", "x", domain.ErrEmptyStaff},
		{"empty text", "#1", "Jamie", " \n ", domain.ErrEmptyText},
		{"break", "#0", "Jamie", "x", domain.ErrBreakRoutine},
		{"bad key", "1", "Jamie", "x", domain.ErrRoutineNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Append(ctx, "Spring", tc.key, tc.staff, tc.text)
			require.ErrorIs(t, err, tc.want)
		})
	}

	exists, err := backend.Exists(ctx, "Spring")
	require.NoError(t, err)
	assert.False(t, exists, "rejected appends must not write anything")
}

func TestDelete(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	var ids []string
	for _, text := range []string{"one", "two", "three"} {
		n, err := svc.Append(ctx, "Spring", "#4", "Jamie", text)
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}
	_, err := svc.Append(ctx, "Spring", "#5", "Jamie", "solo")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "Spring", "#4", ids[1]))
	b, err := svc.Load(ctx, "Spring")
	require.NoError(t, err)
	require.Len(t, b["#4"], 2)
	assert.Equal(t, "one", b["#4"][0].Text)
	assert.Equal(t, "three", b["#4"][1].Text)

	t.Run("already deleted", func(t *testing.T) {
		err := svc.Delete(ctx, "Spring", "#4", ids[1])
		assert.ErrorIs(t, err, domain.ErrNoteNotFound)
	})

	t.Run("last note removes key", func(t *testing.T) {
		solo := b["#5"][0]
		require.NoError(t, svc.Delete(ctx, "Spring", "#5", solo.ID))
		b, err := svc.Load(ctx, "Spring")
		require.NoError(t, err)
		_, ok := b["#5"]
		assert.False(t, ok)
	})
}

func TestConcurrentAppendsAreNotLost(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Append(ctx, "Spring", "#1", "Jamie", "note")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	b, err := svc.Load(ctx, "Spring")
	require.NoError(t, err)
	assert.Len(t, b["#1"], writers)
}

func TestLoadCorruptFile(t *testing.T) {
	svc, backend, _ := newTestService(t)
	ctx := context.Background()

	path := backend.Path("Spring")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	b, err := svc.Load(ctx, "Spring")
	require.Error(t, err)
	assert.NotNil(t, b)
	assert.Empty(t, b)
}

func TestDrop(t *testing.T) {
	svc, backend, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Append(ctx, "Spring", "#1", "Jamie", "x")
	require.NoError(t, err)
	require.NoError(t, svc.Drop(ctx, "Spring"))

	exists, err := backend.Exists(ctx, "Spring")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, svc.Drop(ctx, "Spring"), "dropping a missing log is fine")
}

func TestLockEntriesAreReleased(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, show := range []string{"Spring", "Winter", "Spring"} {
		wg.Add(1)
		go func(show string) {
			defer wg.Done()
			_, err := svc.Append(ctx, show, "#1", "Jamie", "x")
			assert.NoError(t, err)
		}(show)
	}
	wg.Wait()
	require.NoError(t, svc.Drop(ctx, "Spring"))
	assert.ErrorIs(t, svc.Delete(ctx, "Nope", "#1", "missing"), domain.ErrNoteNotFound)

	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Empty(t, svc.locks)
}

const legacyDoc = `{
  "#1": [{"staff": "Jamie", "note": "Great energy", "time": "Jan 01, 2026 05:00 PM"}],
  "#3": [{"staff": "Alex", "note": "Late entrance", "time": "Jan 01, 2026 05:10 PM"}]
}`

func TestLegacyFallback(t *testing.T) {
	dir := t.TempDir()
	legacyPath := filepath.Join(dir, "show_notes.json")
	require.NoError(t, os.WriteFile(legacyPath, []byte(legacyDoc), 0o644))

	backend := NewFileBackend(filepath.Join(dir, "notes"), nil)
	svc := NewService(backend,
		WithClock(fixedClock),
		WithLegacy(Legacy{ShowName: legacyShow, Path: legacyPath}),
	)
	ctx := context.Background()

	t.Run("legacy show reads legacy file", func(t *testing.T) {
		b, err := svc.Load(ctx, legacyShow)
		require.NoError(t, err)
		require.Len(t, b["#1"], 1)
		assert.Equal(t, "Jamie", b["#1"][0].Staff)
		assert.Equal(t, "Great energy", b["#1"][0].Text)
		assert.Equal(t, "Jan 01, 2026 05:00 PM", b["#1"][0].Time)
		assert.NotEmpty(t, b["#1"][0].ID)

		exists, err := backend.Exists(ctx, legacyShow)
		require.NoError(t, err)
		assert.False(t, exists, "loading must not write the per-show file")
	})

	t.Run("other shows ignore legacy file", func(t *testing.T) {
		b, err := svc.Load(ctx, "Spring")
		require.NoError(t, err)
		assert.Empty(t, b)
	})

	t.Run("first write switches to per-show file", func(t *testing.T) {
		legacy, err := svc.Load(ctx, legacyShow)
		require.NoError(t, err)

		_, err = svc.Append(ctx, legacyShow, "#2", "Sam", "New note")
		require.NoError(t, err)

		b, err := svc.Load(ctx, legacyShow)
		require.NoError(t, err)
		assert.Equal(t, legacy["#1"], b["#1"])
		assert.Equal(t, legacy["#3"], b["#3"])
		require.Len(t, b["#2"], 1)

		// The per-show file is authoritative from now on.
		require.NoError(t, os.WriteFile(legacyPath, []byte(`{"#9": [{"staff":"x","note":"y","time":"z"}]}`), 0o644))
		b, err = svc.Load(ctx, legacyShow)
		require.NoError(t, err)
		assert.NotContains(t, b, "#9")
	})
}

func TestLegacyDeleteMaterialises(t *testing.T) {
	dir := t.TempDir()
	legacyPath := filepath.Join(dir, "show_notes.json")
	require.NoError(t, os.WriteFile(legacyPath, []byte(legacyDoc), 0o644))

	svc := NewService(NewFileBackend(filepath.Join(dir, "notes"), nil),
		WithLegacy(Legacy{ShowName: legacyShow, Path: legacyPath}))
	ctx := context.Background()

	b, err := svc.Load(ctx, legacyShow)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, legacyShow, "#1", b["#1"][0].ID))

	b, err = svc.Load(ctx, legacyShow)
	require.NoError(t, err)
	assert.NotContains(t, b, "#1")
	assert.Len(t, b["#3"], 1)

	raw, err := os.ReadFile(legacyPath)
	require.NoError(t, err)
	assert.JSONEq(t, legacyDoc, string(raw), "the legacy file is never modified")
}

func newLegacyService(t *testing.T, doc string) (*Service, *FileBackend, string) {
	t.Helper()
	dir := t.TempDir()
	legacyPath := filepath.Join(dir, "show_notes.json")
	require.NoError(t, os.WriteFile(legacyPath, []byte(doc), 0o644))
	backend := NewFileBackend(filepath.Join(dir, "notes"), nil)
	svc := NewService(backend, WithClock(fixedClock), WithLegacy(Legacy{ShowName: legacyShow, Path: legacyPath}))
	return svc, backend, legacyPath
}

func TestLegacyDropIsPermanent(t *testing.T) {
	ctx := context.Background()

	t.Run("after a write", func(t *testing.T) {
		svc, backend, _ := newLegacyService(t, legacyDoc)
		_, err := svc.Append(ctx, legacyShow, "#2", "Sam", "New note")
		require.NoError(t, err)

		require.NoError(t, svc.Drop(ctx, legacyShow))
		b, err := svc.Load(ctx, legacyShow)
		require.NoError(t, err)
		assert.Empty(t, b)

		exists, err := backend.Exists(ctx, legacyShow)
		require.NoError(t, err)
		assert.True(t, exists, "an empty log shadows the legacy file")
	})

	t.Run("before any write", func(t *testing.T) {
		svc, _, _ := newLegacyService(t, legacyDoc)
		require.NoError(t, svc.Drop(ctx, legacyShow))
		b, err := svc.Load(ctx, legacyShow)
		require.NoError(t, err)
		assert.Empty(t, b)
	})

	t.Run("other shows leave no log", func(t *testing.T) {
		svc, backend, _ := newLegacyService(t, legacyDoc)
		require.NoError(t, svc.Drop(ctx, "Spring"))
		exists, err := backend.Exists(ctx, "Spring")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

const duplicateLegacyDoc = `{
  "#1": [
    {"staff": "Jamie", "note": "Great energy", "time": "Jan 01, 2026 05:00 PM"},
    {"staff": "Jamie", "note": "Great energy", "time": "Jan 01, 2026 05:00 PM"}
  ]
}`

func TestDuplicateLegacyNotes(t *testing.T) {
	svc, _, _ := newLegacyService(t, duplicateLegacyDoc)
	ctx := context.Background()

	b, err := svc.Load(ctx, legacyShow)
	require.NoError(t, err)
	require.Len(t, b["#1"], 2)
	first, second := b["#1"][0].ID, b["#1"][1].ID
	require.NotEqual(t, first, second)

	require.NoError(t, svc.Delete(ctx, legacyShow, "#1", second))
	b, err = svc.Load(ctx, legacyShow)
	require.NoError(t, err)
	require.Len(t, b["#1"], 1)
	assert.Equal(t, first, b["#1"][0].ID)

	_, err = svc.Append(ctx, legacyShow, "#2", "Sam", "New note")
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Delete(ctx, legacyShow, "#1", second), domain.ErrNoteNotFound)
}

func TestSortedKeys(t *testing.T) {
	b := domain.Buckets{"#10": nil, "#2": nil, "x": nil, "#1": nil}
	assert.Equal(t, []string{"#1", "#2", "#10", "x"}, SortedKeys(b))
}
