// Package storage owns the SQLite graph database: files, symbols, relations,
// and the FTS index over symbol names.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure Go SQLite driver

	cbgerrors "cbg/internal/errors"
	"cbg/internal/logging"
)

// DB wraps the SQLite connection with transaction helpers.
type DB struct {
	conn   *sql.DB
	logger *logging.Logger
	path   string
}

// Open opens or creates the graph database at <repoRoot>/.cbg/graph.db.
func Open(repoRoot string, logger *logging.Logger) (*DB, error) {
	dir := filepath.Join(repoRoot, ".cbg")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, cbgerrors.New(cbgerrors.StoreUnavailable, "cannot create .cbg directory", err)
	}
	return OpenPath(filepath.Join(dir, "graph.db"), logger)
}

// OpenPath opens or creates the graph database at an explicit path.
func OpenPath(dbPath string, logger *logging.Logger) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, cbgerrors.New(cbgerrors.StoreUnavailable, "cannot open database", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, cbgerrors.New(cbgerrors.StoreUnavailable, "cannot set pragma", err)
		}
	}

	db := &DB{conn: conn, logger: logger, path: dbPath}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, cbgerrors.New(cbgerrors.StoreUnavailable, "cannot initialize schema", err)
	}

	logger.Debug("database opened", map[string]any{"path": dbPath})
	return db, nil
}

// OpenExisting opens a database that must already exist. Queries have no
// meaningful fallback for a missing graph, so this fails fast.
func OpenExisting(dbPath string, logger *logging.Logger) (*DB, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, cbgerrors.New(cbgerrors.StoreUnavailable,
			fmt.Sprintf("graph database not found at %s (run `cbg index` first)", dbPath), err)
	}
	return OpenPath(dbPath, logger)
}

// Close closes the connection.
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Path returns the database file path.
func (db *DB) Path() string { return db.path }

// WithTx runs fn inside a transaction, rolling back on error or panic.
func (db *DB) WithTx(fn func(*sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("rollback failed", map[string]any{
				"error":          err.Error(),
				"rollback_error": rbErr.Error(),
			})
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
