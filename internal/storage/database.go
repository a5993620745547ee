package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/conorfennell/shownotes/internal/domain"
	"github.com/conorfennell/shownotes/internal/noteid"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB represents a wrapper around the SQL database connection.
// It implements notes.Backend.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Execute the schema to create tables if they don't exist.
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Exists reports whether a note log has been created for show.
func (db *DB) Exists(ctx context.Context, show string) (bool, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM note_logs WHERE show = ?`, show).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check note log for %s: %w", show, err)
	}
	return n > 0, nil
}

// Load retrieves every note of show grouped by routine key, in insertion order.
func (db *DB) Load(ctx context.Context, show string) (domain.Buckets, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, routine_key, staff, note, time
		FROM notes WHERE show = ?
		ORDER BY seq
	`, show)
	if err != nil {
		return nil, fmt.Errorf("failed to get notes for %s: %w", show, err)
	}
	defer rows.Close()

	b := domain.Buckets{}
	for rows.Next() {
		var (
			n   domain.Note
			key string
		)
		if err := rows.Scan(&n.ID, &key, &n.Staff, &n.Text, &n.Time); err != nil {
			return nil, fmt.Errorf("failed to scan note row for %s: %w", show, err)
		}
		b[key] = append(b[key], n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notes for %s: %w", show, err)
	}
	return b, nil
}

// Insert appends notes to a routine's bucket in one transaction.
func (db *DB) Insert(ctx context.Context, show, routineKey string, notes ...domain.Note) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO note_logs (show, created_at) VALUES (?, ?)
		ON CONFLICT(show) DO NOTHING
	`, show, time.Now()); err != nil {
		return fmt.Errorf("failed to create note log for %s: %w", show, err)
	}

	notes = append([]domain.Note(nil), notes...)
	if err := db.fillIDs(ctx, tx, show, routineKey, notes); err != nil {
		return err
	}

	for _, n := range notes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO notes (id, show, routine_key, staff, note, time)
			VALUES (?, ?, ?, ?, ?, ?)
		`, n.ID, show, routineKey, n.Staff, n.Text, n.Time); err != nil {
			return fmt.Errorf("failed to insert note %s: %w", n.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit notes for %s: %w", show, err)
	}
	return nil
}

// fillIDs derives ids for notes stored without one, avoiding ids already in the bucket.
func (db *DB) fillIDs(ctx context.Context, tx *sql.Tx, show, routineKey string, notes []domain.Note) error {
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

	rows, err := tx.QueryContext(ctx, `SELECT id FROM notes WHERE show = ? AND routine_key = ?`, show, routineKey)
	if err != nil {
		return fmt.Errorf("failed to get note ids for %s %s: %w", show, routineKey, err)
	}
	defer rows.Close()

	var existing []domain.Note
	for rows.Next() {
		var n domain.Note
		if err := rows.Scan(&n.ID); err != nil {
			return fmt.Errorf("failed to scan note id: %w", err)
		}
		existing = append(existing, n)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate note ids: %w", err)
	}

	noteid.FillBucket(routineKey, notes, existing...)
	return nil
}

// Create records an empty note log for show if it has none.
func (db *DB) Create(ctx context.Context, show string) error {
	if _, err := db.conn.ExecContext(ctx, `
		INSERT INTO note_logs (show, created_at) VALUES (?, ?)
		ON CONFLICT(show) DO NOTHING
	`, show, time.Now()); err != nil {
		return fmt.Errorf("failed to create note log for %s: %w", show, err)
	}
	return nil
}

// Remove deletes a single note by id.
func (db *DB) Remove(ctx context.Context, show, routineKey, id string) error {
	res, err := db.conn.ExecContext(ctx, `
		DELETE FROM notes
		WHERE show = ? AND routine_key = ? AND id = ?
	`, show, routineKey, id)
	if err != nil {
		return fmt.Errorf("failed to delete note %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows for note %s: %w", id, err)
	}
	if n == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}

// Drop removes a show's note log and all of its notes.
func (db *DB) Drop(ctx context.Context, show string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE show = ?`, show); err != nil {
		return fmt.Errorf("failed to delete notes for %s: %w", show, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM note_logs WHERE show = ?`, show); err != nil {
		return fmt.Errorf("failed to delete note log for %s: %w", show, err)
	}
	return tx.Commit()
}

// Shows lists every show that has a note log, oldest first.
func (db *DB) Shows(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT show FROM note_logs ORDER BY created_at, show`)
	if err != nil {
		return nil, fmt.Errorf("failed to get note logs: %w", err)
	}
	defer rows.Close()

	var shows []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan note log row: %w", err)
		}
		shows = append(shows, s)
	}
	return shows, rows.Err()
}
