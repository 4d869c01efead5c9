package storage

import (
	"database/sql"
	"fmt"
	"strings"
)

// --- write side (indexer only) ---

// ResetRepo deletes all indexed data. Used for wholesale re-index.
func (db *DB) ResetRepo(tx *sql.Tx) error {
	for _, stmt := range []string{
		"DELETE FROM relations",
		"DELETE FROM symbols",
		"DELETE FROM files",
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// UpsertFile inserts a file row and returns its id.
func (db *DB) UpsertFile(tx *sql.Tx, path, language string, lineCount int) (int64, error) {
	_, err := tx.Exec(
		`INSERT INTO files(path, language, line_count) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET language=excluded.language,
		 line_count=excluded.line_count, indexed_at=datetime('now')`,
		path, language, lineCount,
	)
	if err != nil {
		return 0, err
	}
	var id int64
	err = tx.QueryRow("SELECT id FROM files WHERE path = ?", path).Scan(&id)
	return id, err
}

// InsertSymbol inserts a symbol row and returns its id.
func (db *DB) InsertSymbol(tx *sql.Tx, fileID int64, name, kind string, startLine, endLine int) (int64, error) {
	_, err := tx.Exec(
		"INSERT OR IGNORE INTO symbols(file_id, name, kind, start_line, end_line) VALUES (?, ?, ?, ?, ?)",
		fileID, name, kind, startLine, endLine,
	)
	if err != nil {
		return 0, err
	}
	var id int64
	err = tx.QueryRow(
		"SELECT id FROM symbols WHERE file_id=? AND name=? AND kind=? AND start_line IS ?",
		fileID, name, kind, startLine,
	).Scan(&id)
	return id, err
}

// InsertRelation inserts a relation row. srcSymbolID of zero means the
// source is file scope; the target stays name-only until resolution.
func (db *DB) InsertRelation(tx *sql.Tx, srcSymbolID int64, dstName string, kind RelationKind, fileID int64, line int) error {
	var src any
	if srcSymbolID != 0 {
		src = srcSymbolID
	}
	_, err := tx.Exec(
		"INSERT INTO relations(src_symbol_id, dst_name, kind, file_id, line) VALUES (?, ?, ?, ?, ?)",
		src, dstName, kind, fileID, line,
	)
	return err
}

// ResolveRelationTargets links name-only relation targets to symbol ids.
// When several symbols share a name the lowest id wins, keeping resolution
// deterministic across runs.
func (db *DB) ResolveRelationTargets(tx *sql.Tx) error {
	_, err := tx.Exec(`
		UPDATE relations
		SET dst_symbol_id = (SELECT MIN(s.id) FROM symbols s WHERE s.name = relations.dst_name)
		WHERE dst_symbol_id IS NULL`)
	return err
}

// --- read side (query pipeline; deterministic, side-effect-free) ---

const symbolColumns = `s.id, s.file_id, f.path, s.name, s.kind,
	COALESCE(s.start_line, 0), COALESCE(s.end_line, 0)`

func scanSymbols(rows *sql.Rows) ([]Symbol, error) {
	defer rows.Close()
	var out []Symbol
	for rows.Next() {
		var s Symbol
		if err := rows.Scan(&s.ID, &s.FileID, &s.FilePath, &s.Name, &s.Kind, &s.StartLine, &s.EndLine); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// LookupSymbolsByName returns symbols whose name equals or contains term,
// exact matches first, then id ascending.
func (db *DB) LookupSymbolsByName(term string) ([]Symbol, error) {
	if term == "" {
		return nil, nil
	}
	rows, err := db.conn.Query(fmt.Sprintf(`
		SELECT %s FROM symbols s
		JOIN files f ON f.id = s.file_id
		WHERE s.name = ?1 COLLATE NOCASE
		   OR s.id IN (SELECT rowid FROM symbols_fts WHERE symbols_fts MATCH ?2)
		   OR lower(s.name) LIKE ?3
		ORDER BY (s.name = ?1 COLLATE NOCASE) DESC, s.id ASC`, symbolColumns),
		term, ftsPrefixQuery(term), "%"+strings.ToLower(term)+"%",
	)
	if err != nil {
		return nil, err
	}
	return scanSymbols(rows)
}

// ftsPrefixQuery turns a raw term into a quoted FTS5 prefix query so that
// user input cannot inject FTS syntax.
func ftsPrefixQuery(term string) string {
	escaped := strings.ReplaceAll(term, `"`, `""`)
	return `"` + escaped + `"*`
}

// SymbolByID fetches a single symbol.
func (db *DB) SymbolByID(id int64) (*Symbol, error) {
	rows, err := db.conn.Query(fmt.Sprintf(
		"SELECT %s FROM symbols s JOIN files f ON f.id = s.file_id WHERE s.id = ?", symbolColumns), id)
	if err != nil {
		return nil, err
	}
	syms, err := scanSymbols(rows)
	if err != nil {
		return nil, err
	}
	if len(syms) == 0 {
		return nil, nil
	}
	return &syms[0], nil
}

// LookupFileByPath returns the file whose path contains term, shortest
// match first, or nil when nothing matches.
func (db *DB) LookupFileByPath(term string) (*File, error) {
	if term == "" {
		return nil, nil
	}
	row := db.conn.QueryRow(`
		SELECT id, path, language, line_count, indexed_at FROM files
		WHERE lower(path) LIKE ?
		ORDER BY length(path) ASC, id ASC LIMIT 1`,
		"%"+strings.ToLower(term)+"%",
	)
	var f File
	if err := row.Scan(&f.ID, &f.Path, &f.Language, &f.LineCount, &f.IndexedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

// OutgoingRelations returns relations leaving a symbol, optionally filtered
// by kind, ordered by relation id for reproducible traversal.
func (db *DB) OutgoingRelations(symbolID int64, kind RelationKind) ([]Relation, error) {
	query := `SELECT id, COALESCE(src_symbol_id, 0), COALESCE(dst_symbol_id, 0),
		dst_name, kind, file_id, COALESCE(line, 0)
		FROM relations WHERE src_symbol_id = ?`
	args := []any{symbolID}
	if kind != "" {
		query += " AND kind = ?"
		args = append(args, string(kind))
	}
	query += " ORDER BY id ASC"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Relation
	for rows.Next() {
		var r Relation
		if err := rows.Scan(&r.ID, &r.SrcSymbolID, &r.DstSymbolID, &r.DstName, &r.Kind, &r.FileID, &r.Line); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CallersOf returns (path, caller name, line) tuples for call sites that
// target the named symbol.
func (db *DB) CallersOf(symbolName string) ([]CallSite, error) {
	rows, err := db.conn.Query(`
		SELECT f.path, COALESCE(s.name, ''), COALESCE(r.line, 0)
		FROM relations r
		LEFT JOIN symbols s ON s.id = r.src_symbol_id
		JOIN files f ON f.id = r.file_id
		WHERE r.kind = 'calls' AND r.dst_name = ?
		ORDER BY f.path, r.line`, symbolName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CallSite
	for rows.Next() {
		var c CallSite
		if err := rows.Scan(&c.Path, &c.Caller, &c.Line); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CallSite locates a relation source in a file.
type CallSite struct {
	Path   string `json:"path"`
	Caller string `json:"caller,omitempty"`
	Line   int    `json:"line,omitempty"`
}

// Impact is a dependency on a symbol, any relation kind.
type Impact struct {
	Path      string       `json:"path"`
	Dependent string       `json:"dependent,omitempty"`
	Kind      RelationKind `json:"kind"`
	Line      int          `json:"line,omitempty"`
}

// ImpactsOf returns every relation that targets the named symbol.
func (db *DB) ImpactsOf(symbolName string) ([]Impact, error) {
	rows, err := db.conn.Query(`
		SELECT f.path, COALESCE(s.name, ''), r.kind, COALESCE(r.line, 0)
		FROM relations r
		LEFT JOIN symbols s ON s.id = r.src_symbol_id
		JOIN files f ON f.id = r.file_id
		WHERE r.dst_name = ?
		ORDER BY r.kind, f.path, r.line`, symbolName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Impact
	for rows.Next() {
		var im Impact
		if err := rows.Scan(&im.Path, &im.Dependent, &im.Kind, &im.Line); err != nil {
			return nil, err
		}
		out = append(out, im)
	}
	return out, rows.Err()
}

// ImpactedByFiles returns the distinct relation targets declared in the
// given files. Used for PR blast-radius reporting.
func (db *DB) ImpactedByFiles(paths []string, limit int) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(paths)), ",")
	args := make([]any, 0, len(paths)+1)
	for _, p := range paths {
		args = append(args, p)
	}
	args = append(args, limit)

	rows, err := db.conn.Query(fmt.Sprintf(`
		SELECT DISTINCT r.dst_name
		FROM files f
		JOIN relations r ON r.file_id = f.id
		WHERE f.path IN (%s)
		ORDER BY r.dst_name LIMIT ?`, placeholders), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// TopSymbols returns symbols ordered by inbound reference count.
func (db *DB) TopSymbols(limit int) ([]RankedSymbol, error) {
	rows, err := db.conn.Query(`
		SELECT s.id, s.file_id, f.path, s.name, s.kind,
			COALESCE(s.start_line, 0), COALESCE(s.end_line, 0),
			COUNT(r.id) AS inbound
		FROM symbols s
		JOIN files f ON f.id = s.file_id
		LEFT JOIN relations r ON r.dst_name = s.name
		GROUP BY s.id
		ORDER BY inbound DESC, s.name ASC, s.id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RankedSymbol
	for rows.Next() {
		var rs RankedSymbol
		if err := rows.Scan(&rs.ID, &rs.FileID, &rs.FilePath, &rs.Name, &rs.Kind,
			&rs.StartLine, &rs.EndLine, &rs.InboundRefs); err != nil {
			return nil, err
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}

// InboundCounts returns the inbound reference count per symbol id. The
// ranker uses it as the importance signal; an empty map is a valid neutral
// input.
func (db *DB) InboundCounts() (map[int64]int, error) {
	rows, err := db.conn.Query(`
		SELECT s.id, COUNT(r.id)
		FROM symbols s
		LEFT JOIN relations r ON r.dst_name = s.name
		GROUP BY s.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// Stats returns index-wide counts.
func (db *DB) Stats() (Stats, error) {
	var st Stats
	for _, q := range []struct {
		query string
		dst   *int
	}{
		{"SELECT COUNT(*) FROM files", &st.Files},
		{"SELECT COUNT(*) FROM symbols", &st.Symbols},
		{"SELECT COUNT(*) FROM relations", &st.Relations},
	} {
		if err := db.conn.QueryRow(q.query).Scan(q.dst); err != nil {
			return st, err
		}
	}
	return st, nil
}

// AllFiles returns every indexed file ordered by path.
func (db *DB) AllFiles() ([]File, error) {
	rows, err := db.conn.Query(
		"SELECT id, path, language, line_count, indexed_at FROM files ORDER BY path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []File
	for rows.Next() {
		var f File
		if err := rows.Scan(&f.ID, &f.Path, &f.Language, &f.LineCount, &f.IndexedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// AllSymbols returns every symbol ordered by id. Used by export.
func (db *DB) AllSymbols() ([]Symbol, error) {
	rows, err := db.conn.Query(fmt.Sprintf(
		"SELECT %s FROM symbols s JOIN files f ON f.id = s.file_id ORDER BY s.id", symbolColumns))
	if err != nil {
		return nil, err
	}
	return scanSymbols(rows)
}

// AllRelations returns every relation ordered by id. Used by export.
func (db *DB) AllRelations() ([]Relation, error) {
	rows, err := db.conn.Query(`
		SELECT id, COALESCE(src_symbol_id, 0), COALESCE(dst_symbol_id, 0),
			dst_name, kind, file_id, COALESCE(line, 0)
		FROM relations ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Relation
	for rows.Next() {
		var r Relation
		if err := rows.Scan(&r.ID, &r.SrcSymbolID, &r.DstSymbolID, &r.DstName, &r.Kind, &r.FileID, &r.Line); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
