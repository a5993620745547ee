package storage

const schema = `
-- The 'note_logs' table records which shows have a note log, even an empty one.
CREATE TABLE IF NOT EXISTS note_logs (
    show TEXT PRIMARY KEY,
    created_at DATETIME NOT NULL
);

-- The 'notes' table stores every staff note. 'seq' preserves insertion order.
CREATE TABLE IF NOT EXISTS notes (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL,
    show TEXT NOT NULL,
    routine_key TEXT NOT NULL,
    staff TEXT NOT NULL,
    note TEXT NOT NULL,
    time TEXT NOT NULL,

    UNIQUE(show, id),
    FOREIGN KEY(show) REFERENCES note_logs(show)
);

CREATE INDEX IF NOT EXISTS idx_notes_show ON notes(show, routine_key);
`
