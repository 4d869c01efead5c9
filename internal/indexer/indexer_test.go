package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cbg/internal/logging"
	"cbg/internal/storage"
)

func writeRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func indexRepo(t *testing.T, files map[string]string) *storage.DB {
	t.Helper()
	root := writeRepo(t, files)
	db, err := storage.OpenPath(filepath.Join(t.TempDir(), "graph.db"), logging.NewDiscard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = New(db, logging.NewDiscard()).Run(context.Background(), root, true)
	require.NoError(t, err)
	return db
}

func TestIndexPythonSymbolsAndCalls(t *testing.T) {
	db := indexRepo(t, map[string]string{
		"auth.py": `def login(user):
    return verify_password(user)

def verify_password(user):
    return True
`,
	})

	syms, err := db.LookupSymbolsByName("login")
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "function", syms[0].Kind)
	assert.Equal(t, "auth.py", syms[0].FilePath)
	assert.Equal(t, 1, syms[0].StartLine)

	rels, err := db.OutgoingRelations(syms[0].ID, storage.RelationCalls)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "verify_password", rels[0].DstName)
	assert.NotZero(t, rels[0].DstSymbolID, "call target should resolve to the indexed symbol")
}

func TestIndexPythonClassAndInheritance(t *testing.T) {
	db := indexRepo(t, map[string]string{
		"models.py": `class Base:
    pass

class User(Base):
    def save(self):
        persist(self)
`,
	})

	classes, err := db.LookupSymbolsByName("User")
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "class", classes[0].Kind)

	rels, err := db.OutgoingRelations(classes[0].ID, storage.RelationInherits)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "Base", rels[0].DstName)

	methods, err := db.LookupSymbolsByName("save")
	require.NoError(t, err)
	require.Len(t, methods, 1)
	assert.Equal(t, "method", methods[0].Kind)
}

func TestIndexPythonImports(t *testing.T) {
	db := indexRepo(t, map[string]string{
		"app.py": `import os
from pathlib import Path

def main():
    pass
`,
	})

	impacts, err := db.ImpactsOf("os")
	require.NoError(t, err)
	require.Len(t, impacts, 1)
	assert.Equal(t, storage.RelationImports, impacts[0].Kind)

	impacts, err = db.ImpactsOf("pathlib.Path")
	require.NoError(t, err)
	assert.Len(t, impacts, 1)
}

func TestIndexGoFile(t *testing.T) {
	db := indexRepo(t, map[string]string{
		"server.go": `package main

func handle() {
	process()
}

func process() {}

type Server struct{}
`,
	})

	syms, err := db.LookupSymbolsByName("handle")
	require.NoError(t, err)
	require.Len(t, syms, 1)

	rels, err := db.OutgoingRelations(syms[0].ID, storage.RelationCalls)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "process", rels[0].DstName)

	types, err := db.LookupSymbolsByName("Server")
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "class", types[0].Kind)
}

func TestSkipsHiddenAndDependencyDirs(t *testing.T) {
	db := indexRepo(t, map[string]string{
		"main.py":                 "def entry():\n    pass\n",
		".venv/lib.py":            "def hidden():\n    pass\n",
		"node_modules/pkg/x.js":   "function dep() {}\n",
		"docs/readme.txt":         "not source\n",
	})

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Files)

	hidden, err := db.LookupSymbolsByName("hidden")
	require.NoError(t, err)
	assert.Empty(t, hidden)
}

func TestReindexReplacesWholesale(t *testing.T) {
	root := writeRepo(t, map[string]string{
		"a.py": "def old_symbol():\n    pass\n",
	})
	db, err := storage.OpenPath(filepath.Join(t.TempDir(), "graph.db"), logging.NewDiscard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ix := New(db, logging.NewDiscard())
	_, err = ix.Run(context.Background(), root, true)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.py"), []byte("def new_symbol():\n    pass\n"), 0o644))
	_, err = ix.Run(context.Background(), root, true)
	require.NoError(t, err)

	old, err := db.LookupSymbolsByName("old_symbol")
	require.NoError(t, err)
	assert.Empty(t, old, "reset index should drop replaced symbols")

	fresh, err := db.LookupSymbolsByName("new_symbol")
	require.NoError(t, err)
	assert.Len(t, fresh, 1)
}

func TestRecursiveCallsIndexWithoutLoop(t *testing.T) {
	db := indexRepo(t, map[string]string{
		"rec.py": `def ping(n):
    return pong(n)

def pong(n):
    return ping(n - 1)
`,
	})

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Symbols)
	assert.Equal(t, 2, stats.Relations)
}
