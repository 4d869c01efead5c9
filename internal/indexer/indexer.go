// Package indexer builds the code graph: it walks a repository, extracts
// symbols and relations with tree-sitter, and persists them wholesale into
// the graph store.
package indexer

import (
	"context"
	"database/sql"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cbg/internal/logging"
	"cbg/internal/storage"
)

var skippedDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"target":       true,
	"__pycache__":  true,
}

// Indexer indexes a repository into a graph store.
type Indexer struct {
	db        *storage.DB
	extractor *Extractor
	logger    *logging.Logger
}

// New creates an Indexer.
func New(db *storage.DB, logger *logging.Logger) *Indexer {
	return &Indexer{
		db:        db,
		extractor: NewExtractor(),
		logger:    logger,
	}
}

// Run indexes repoRoot. With reset (the default), existing data is replaced
// wholesale; symbols and relations are never mutated in place.
func (ix *Indexer) Run(ctx context.Context, repoRoot string, reset bool) (storage.Stats, error) {
	paths, err := sourceFiles(repoRoot)
	if err != nil {
		return storage.Stats{}, err
	}

	err = ix.db.WithTx(func(tx *sql.Tx) error {
		if reset {
			if err := ix.db.ResetRepo(tx); err != nil {
				return err
			}
		}

		for _, rel := range paths {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := ix.indexFile(ctx, tx, repoRoot, rel); err != nil {
				// Unreadable files are logged and skipped; indexing stays
				// resilient.
				ix.logger.Warn("skipping file", map[string]any{"path": rel, "error": err.Error()})
			}
		}

		return ix.db.ResolveRelationTargets(tx)
	})
	if err != nil {
		return storage.Stats{}, err
	}

	stats, err := ix.db.Stats()
	if err != nil {
		return stats, err
	}
	ix.logger.Info("index complete", map[string]any{
		"files":     stats.Files,
		"symbols":   stats.Symbols,
		"relations": stats.Relations,
	})
	return stats, nil
}

func (ix *Indexer) indexFile(ctx context.Context, tx *sql.Tx, repoRoot, rel string) error {
	lang, _ := LanguageFromExtension(strings.ToLower(filepath.Ext(rel)))

	source, err := os.ReadFile(filepath.Join(repoRoot, rel))
	if err != nil {
		return err
	}

	result, err := ix.extractor.ExtractSource(ctx, source, lang)
	if err != nil {
		return err
	}

	fileID, err := ix.db.UpsertFile(tx, rel, string(result.Language), result.LineCount)
	if err != nil {
		return err
	}

	// First-declared symbol wins name resolution within the file, matching
	// how relation sources are attributed.
	symbolIDs := make(map[string]int64, len(result.Symbols))
	for _, sym := range result.Symbols {
		id, err := ix.db.InsertSymbol(tx, fileID, sym.Name, sym.Kind, sym.StartLine, sym.EndLine)
		if err != nil {
			return err
		}
		if _, seen := symbolIDs[sym.Name]; !seen {
			symbolIDs[sym.Name] = id
		}
	}

	for _, rel := range result.Relations {
		srcID := symbolIDs[rel.SrcName] // zero for file scope
		if err := ix.db.InsertRelation(tx, srcID, rel.DstName, rel.Kind, fileID, rel.Line); err != nil {
			return err
		}
	}
	return nil
}

// sourceFiles returns repo-relative paths of supported source files, sorted
// by the walk order (lexical), skipping hidden and dependency directories.
func sourceFiles(repoRoot string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(repoRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if path != repoRoot && (strings.HasPrefix(name, ".") || skippedDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := LanguageFromExtension(strings.ToLower(filepath.Ext(name))); !ok {
			return nil
		}
		rel, err := filepath.Rel(repoRoot, path)
		if err != nil {
			return nil
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	return paths, err
}
