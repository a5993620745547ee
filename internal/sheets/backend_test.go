package sheets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/shownotes/internal/domain"
	"github.com/conorfennell/shownotes/internal/notes"
)

// fakeClient keeps worksheets in memory.
type fakeClient struct {
	nextID int64
	ids    map[string]int64
	rows   map[string][][]string
	fail   error
}

func newFakeClient() *fakeClient {
	return &fakeClient{ids: map[string]int64{}, rows: map[string][][]string{}}
}

func (f *fakeClient) title(id int64) string {
	for t, i := range f.ids {
		if i == id {
			return t
		}
	}
	return ""
}

func (f *fakeClient) SheetID(_ context.Context, title string) (int64, bool, error) {
	if f.fail != nil {
		return 0, false, f.fail
	}
	id, ok := f.ids[title]
	return id, ok, nil
}

func (f *fakeClient) AddSheet(_ context.Context, title string) (int64, error) {
	f.nextID++
	f.ids[title] = f.nextID
	f.rows[title] = nil
	return f.nextID, nil
}

func (f *fakeClient) Values(_ context.Context, title string) ([][]string, error) {
	return f.rows[title], nil
}

func (f *fakeClient) AppendRows(_ context.Context, title string, rows [][]string) error {
	f.rows[title] = append(f.rows[title], rows...)
	return nil
}

func (f *fakeClient) DeleteRow(_ context.Context, sheetID int64, row int) error {
	t := f.title(sheetID)
	rows := f.rows[t]
	f.rows[t] = append(rows[:row:row], rows[row+1:]...)
	return nil
}

func (f *fakeClient) DeleteSheet(_ context.Context, sheetID int64) error {
	t := f.title(sheetID)
	delete(f.ids, t)
	delete(f.rows, t)
	return nil
}

var _ notes.Backend = (*Backend)(nil)

func TestWorksheetCreatedWithHeader(t *testing.T) {
	fc := newFakeClient()
	b := newBackend(fc)
	ctx := context.Background()

	exists, err := b.Exists(ctx, "Spring")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, b.Insert(ctx, "Spring", "#1", domain.Note{ID: "a", Staff: "Jamie", Text: "one", Time: "t1"}))
	require.Len(t, fc.rows["Spring"], 2)
	assert.Equal(t, Header, fc.rows["Spring"][0])
	assert.Equal(t, []string{"#1", "Jamie", "one", "t1", "a"}, fc.rows["Spring"][1])
}

func TestLoadAndRemove(t *testing.T) {
	fc := newFakeClient()
	b := newBackend(fc)
	ctx := context.Background()

	require.NoError(t, b.Insert(ctx, "Spring", "#1",
		domain.Note{ID: "a", Staff: "Jamie", Text: "one", Time: "t1"},
		domain.Note{ID: "b", Staff: "Jamie", Text: "two", Time: "t1"},
	))
	// A row written by an older version of the tool, without an id column.
	fc.rows["Spring"] = append(fc.rows["Spring"], []string{"#2", "Alex", "old"})

	buckets, err := b.Load(ctx, "Spring")
	require.NoError(t, err)
	require.Len(t, buckets["#1"], 2)
	require.Len(t, buckets["#2"], 1)
	legacyID := buckets["#2"][0].ID
	assert.NotEmpty(t, legacyID)

	require.NoError(t, b.Remove(ctx, "Spring", "#1", "a"))
	assert.ErrorIs(t, b.Remove(ctx, "Spring", "#1", "a"), domain.ErrNoteNotFound)
	require.NoError(t, b.Remove(ctx, "Spring", "#2", legacyID))

	buckets, err = b.Load(ctx, "Spring")
	require.NoError(t, err)
	require.Len(t, buckets["#1"], 1)
	assert.Equal(t, "b", buckets["#1"][0].ID)
	assert.NotContains(t, buckets, "#2")
}

func TestDuplicateRowsWithoutIDs(t *testing.T) {
	fc := newFakeClient()
	b := newBackend(fc)
	ctx := context.Background()

	require.NoError(t, b.Create(ctx, "Spring"))
	dup := []string{"#1", "Jamie", "Great energy", "Jan 01, 2026 05:00 PM"}
	fc.rows["Spring"] = append(fc.rows["Spring"], dup, dup)

	buckets, err := b.Load(ctx, "Spring")
	require.NoError(t, err)
	require.Len(t, buckets["#1"], 2)
	first, second := buckets["#1"][0].ID, buckets["#1"][1].ID
	assert.NotEqual(t, first, second)

	// An id-less note identical to the stored rows gets a third id.
	require.NoError(t, b.Insert(ctx, "Spring", "#1", domain.Note{Staff: "Jamie", Text: "Great energy", Time: "Jan 01, 2026 05:00 PM"}))
	third := fc.rows["Spring"][3][colID]
	assert.NotContains(t, []string{first, second}, third)

	require.NoError(t, b.Remove(ctx, "Spring", "#1", second))
	require.Len(t, fc.rows["Spring"], 3)
	assert.Equal(t, dup, fc.rows["Spring"][1], "the first copy is untouched")
}

func TestCreate(t *testing.T) {
	fc := newFakeClient()
	b := newBackend(fc)
	ctx := context.Background()

	require.NoError(t, b.Create(ctx, "Spring"))
	require.NoError(t, b.Create(ctx, "Spring"))
	exists, err := b.Exists(ctx, "Spring")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, [][]string{Header}, fc.rows["Spring"])

	buckets, err := b.Load(ctx, "Spring")
	require.NoError(t, err)
	assert.Empty(t, buckets)
}

func TestDrop(t *testing.T) {
	fc := newFakeClient()
	b := newBackend(fc)
	ctx := context.Background()

	require.NoError(t, b.Insert(ctx, "Spring", "#1", domain.Note{ID: "a", Staff: "Jamie", Text: "one", Time: "t1"}))
	require.NoError(t, b.Drop(ctx, "Spring"))
	exists, err := b.Exists(ctx, "Spring")
	require.NoError(t, err)
	assert.False(t, exists)
	require.NoError(t, b.Drop(ctx, "Spring"))
}

func TestServiceOnSheets(t *testing.T) {
	svc := notes.NewService(newBackend(newFakeClient()))
	ctx := context.Background()

	n, err := svc.Append(ctx, "Spring", "#3", "Jamie", "Great energy")
	require.NoError(t, err)
	buckets, err := svc.Load(ctx, "Spring")
	require.NoError(t, err)
	require.Len(t, buckets["#3"], 1)
	assert.Equal(t, n, buckets["#3"][0])
}

func TestLoadFailureDegrades(t *testing.T) {
	fc := newFakeClient()
	fc.fail = errors.New("quota exceeded")
	svc := notes.NewService(newBackend(fc))

	buckets, err := svc.Load(context.Background(), "Spring")
	require.Error(t, err)
	assert.NotNil(t, buckets)
	assert.Empty(t, buckets)
}

func TestA1Range(t *testing.T) {
	assert.Equal(t, "'Spring Show'!A:E", a1Range("Spring Show"))
	assert.Equal(t, "'Kid''s Show'!A:E", a1Range("Kid's Show"))
}

func TestLoadCredentials(t *testing.T) {
	_, err := LoadCredentials("", "", "sheet")
	assert.Error(t, err)
	_, err = LoadCredentials(`{}`, "", "")
	assert.Error(t, err)
	creds, err := LoadCredentials(`{"type":"service_account"}`, "", "sheet")
	require.NoError(t, err)
	assert.Equal(t, "sheet", creds.SpreadsheetID)
}
