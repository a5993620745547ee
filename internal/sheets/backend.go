// Package sheets stores notes in a Google Sheets spreadsheet, one worksheet per show.
package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/conorfennell/shownotes/internal/domain"
	"github.com/conorfennell/shownotes/internal/noteid"
)

// Header is the first row of every notes worksheet.
var Header = []string{"routine_key", "staff", "note", "time", "id"}

const (
	colKey = iota
	colStaff
	colNote
	colTime
	colID
)

// client is the subset of the Sheets API the backend needs.
type client interface {
	SheetID(ctx context.Context, title string) (int64, bool, error)
	AddSheet(ctx context.Context, title string) (int64, error)
	Values(ctx context.Context, title string) ([][]string, error)
	AppendRows(ctx context.Context, title string, rows [][]string) error
	DeleteRow(ctx context.Context, sheetID int64, row int) error
	DeleteSheet(ctx context.Context, sheetID int64) error
}

// Backend implements notes.Backend on a spreadsheet.
type Backend struct {
	client client
	mu     sync.Mutex // serialises worksheet creation
}

func newBackend(c client) *Backend {
	return &Backend{client: c}
}

// Exists reports whether the show has a worksheet.
func (b *Backend) Exists(ctx context.Context, show string) (bool, error) {
	_, ok, err := b.client.SheetID(ctx, show)
	if err != nil {
		return false, fmt.Errorf("failed to look up worksheet %q: %w", show, err)
	}
	return ok, nil
}

// ensureSheet returns the worksheet for show, creating it with a header row if absent.
func (b *Backend) ensureSheet(ctx context.Context, show string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id, ok, err := b.client.SheetID(ctx, show)
	if err != nil {
		return 0, fmt.Errorf("failed to look up worksheet %q: %w", show, err)
	}
	if ok {
		return id, nil
	}

	slog.Info("Creating worksheet", "show", show)
	id, err = b.client.AddSheet(ctx, show)
	if err != nil {
		return 0, fmt.Errorf("failed to create worksheet %q: %w", show, err)
	}
	if err := b.client.AppendRows(ctx, show, [][]string{Header}); err != nil {
		return 0, fmt.Errorf("failed to write header to worksheet %q: %w", show, err)
	}
	return id, nil
}

// Load reads every row of the show's worksheet.
func (b *Backend) Load(ctx context.Context, show string) (domain.Buckets, error) {
	ok, err := b.Exists(ctx, show)
	if err != nil || !ok {
		return domain.Buckets{}, err
	}
	rows, err := b.client.Values(ctx, show)
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q: %w", show, err)
	}

	out := domain.Buckets{}
	for _, r := range decodeRows(rows) {
		out[r.key] = append(out[r.key], r.note)
	}
	return out, nil
}

// Create adds an empty worksheet for show if it has none.
func (b *Backend) Create(ctx context.Context, show string) error {
	_, err := b.ensureSheet(ctx, show)
	return err
}

// Insert appends one row per note.
func (b *Backend) Insert(ctx context.Context, show, routineKey string, notes ...domain.Note) error {
	if len(notes) == 0 {
		return nil
	}
	if _, err := b.ensureSheet(ctx, show); err != nil {
		return err
	}
	notes = append([]domain.Note(nil), notes...)
	if err := b.fillIDs(ctx, show, routineKey, notes); err != nil {
		return err
	}

	rows := make([][]string, 0, len(notes))
	for _, n := range notes {
		rows = append(rows, []string{routineKey, n.Staff, n.Text, n.Time, n.ID})
	}
	if err := b.client.AppendRows(ctx, show, rows); err != nil {
		return fmt.Errorf("failed to append to worksheet %q: %w", show, err)
	}
	return nil
}

// Remove finds the row holding the note and deletes it.
func (b *Backend) Remove(ctx context.Context, show, routineKey, id string) error {
	sheetID, ok, err := b.client.SheetID(ctx, show)
	if err != nil {
		return fmt.Errorf("failed to look up worksheet %q: %w", show, err)
	}
	if !ok {
		return domain.ErrNoteNotFound
	}
	rows, err := b.client.Values(ctx, show)
	if err != nil {
		return fmt.Errorf("failed to read worksheet %q: %w", show, err)
	}
	for _, r := range decodeRows(rows) {
		if r.key != routineKey || r.note.ID != id {
			continue
		}
		if err := b.client.DeleteRow(ctx, sheetID, r.index); err != nil {
			return fmt.Errorf("failed to delete row %d of worksheet %q: %w", r.index+1, show, err)
		}
		return nil
	}
	return domain.ErrNoteNotFound
}

// Drop deletes the show's worksheet.
func (b *Backend) Drop(ctx context.Context, show string) error {
	sheetID, ok, err := b.client.SheetID(ctx, show)
	if err != nil {
		return fmt.Errorf("failed to look up worksheet %q: %w", show, err)
	}
	if !ok {
		return nil
	}
	if err := b.client.DeleteSheet(ctx, sheetID); err != nil {
		return fmt.Errorf("failed to delete worksheet %q: %w", show, err)
	}
	return nil
}

// fillIDs derives ids for notes written without one, avoiding ids already in the
// worksheet's bucket.
func (b *Backend) fillIDs(ctx context.Context, show, routineKey string, notes []domain.Note) error {
	missing := false
	for _, n := range notes {
		if n.ID == "" {
			missing = true
			break
		}
	}
	if !missing {
		return nil
	}

	values, err := b.client.Values(ctx, show)
	if err != nil {
		return fmt.Errorf("failed to read worksheet %q: %w", show, err)
	}
	var existing []domain.Note
	for _, r := range decodeRows(values) {
		if r.key == routineKey {
			existing = append(existing, r.note)
		}
	}
	noteid.FillBucket(routineKey, notes, existing...)
	return nil
}

// sheetRow is a decoded worksheet row; index is its zero-based position.
type sheetRow struct {
	index int
	key   string
	note  domain.Note
}

// decodeRows decodes every row after the header. Rows written without an id get
// a derived one, numbered by bucket so identical rows stay distinct.
func decodeRows(values [][]string) []sheetRow {
	var out []sheetRow
	byKey := make(map[string][]int)
	for i, row := range values {
		if i == 0 {
			continue // header
		}
		key, note, ok := decodeRow(row)
		if !ok {
			continue
		}
		byKey[key] = append(byKey[key], len(out))
		out = append(out, sheetRow{index: i, key: key, note: note})
	}

	for key, idx := range byKey {
		notes := make([]domain.Note, len(idx))
		for j, k := range idx {
			notes[j] = out[k].note
		}
		if noteid.FillBucket(key, notes) {
			for j, k := range idx {
				out[k].note = notes[j]
			}
		}
	}
	return out
}

func decodeRow(row []string) (string, domain.Note, bool) {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	key := cell(colKey)
	if key == "" {
		return "", domain.Note{}, false
	}
	return key, domain.Note{
		ID:    cell(colID),
		Staff: cell(colStaff),
		Text:  cell(colNote),
		Time:  cell(colTime),
	}, true
}
