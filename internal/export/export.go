// Package export dumps the indexed graph as zstd-compressed JSON.
package export

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"cbg/internal/storage"
)

// Dump is the exported graph snapshot.
type Dump struct {
	Version   int                `json:"version"`
	Files     []storage.File     `json:"files"`
	Symbols   []storage.Symbol   `json:"symbols"`
	Relations []storage.Relation `json:"relations"`
}

// WriteGraph snapshots the whole graph to outPath.
func WriteGraph(db *storage.DB, outPath string) error {
	files, err := db.AllFiles()
	if err != nil {
		return err
	}
	symbols, err := db.AllSymbols()
	if err != nil {
		return err
	}
	relations, err := db.AllRelations()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(zw).Encode(Dump{
		Version:   1,
		Files:     files,
		Symbols:   symbols,
		Relations: relations,
	}); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// ReadGraph loads a snapshot written by WriteGraph.
func ReadGraph(path string) (*Dump, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var dump Dump
	if err := json.NewDecoder(zr).Decode(&dump); err != nil {
		return nil, err
	}
	return &dump, nil
}
