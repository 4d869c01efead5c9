package storage

import "database/sql"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS files (
	id INTEGER PRIMARY KEY,
	path TEXT UNIQUE NOT NULL,
	language TEXT NOT NULL,
	line_count INTEGER NOT NULL DEFAULT 0,
	indexed_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS symbols (
	id INTEGER PRIMARY KEY,
	file_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	kind TEXT NOT NULL,
	start_line INTEGER,
	end_line INTEGER,
	UNIQUE(file_id, name, kind, start_line),
	FOREIGN KEY(file_id) REFERENCES files(id)
);

CREATE TABLE IF NOT EXISTS relations (
	id INTEGER PRIMARY KEY,
	src_symbol_id INTEGER,
	dst_symbol_id INTEGER,
	dst_name TEXT NOT NULL,
	kind TEXT NOT NULL,
	file_id INTEGER NOT NULL,
	line INTEGER,
	FOREIGN KEY(src_symbol_id) REFERENCES symbols(id),
	FOREIGN KEY(dst_symbol_id) REFERENCES symbols(id),
	FOREIGN KEY(file_id) REFERENCES files(id)
);

CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
CREATE INDEX IF NOT EXISTS idx_relations_src ON relations(src_symbol_id, kind);
CREATE INDEX IF NOT EXISTS idx_relations_dst_name ON relations(dst_name);

CREATE VIRTUAL TABLE IF NOT EXISTS symbols_fts USING fts5(
	name,
	content='symbols',
	content_rowid='id'
);

CREATE TRIGGER IF NOT EXISTS symbols_fts_ai AFTER INSERT ON symbols BEGIN
	INSERT INTO symbols_fts(rowid, name) VALUES (new.id, new.name);
END;

CREATE TRIGGER IF NOT EXISTS symbols_fts_ad AFTER DELETE ON symbols BEGIN
	INSERT INTO symbols_fts(symbols_fts, rowid, name) VALUES ('delete', old.id, old.name);
END;
`

// initSchema creates all tables, indexes, and the FTS mirror. Idempotent.
func (db *DB) initSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(schemaSQL)
		return err
	})
}
