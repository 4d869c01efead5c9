package review

import (
	"database/sql"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	cbgerrors "cbg/internal/errors"
	"cbg/internal/logging"
	"cbg/internal/storage"
)

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@test",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@test",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

func gitRepoWithTwoCommits(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	runGit(t, dir, "init", "-b", "main")
	if err := os.WriteFile(filepath.Join(dir, "auth.py"), []byte("def login():\n    pass\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "initial")
	runGit(t, dir, "tag", "v1")

	if err := os.WriteFile(filepath.Join(dir, "auth.py"), []byte("def login():\n    return verify()\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "update login")
	runGit(t, dir, "tag", "v2")
	return dir
}

func seededDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.OpenPath(filepath.Join(t.TempDir(), "graph.db"), logging.NewDiscard())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	err = db.WithTx(func(tx *sql.Tx) error {
		fid, err := db.UpsertFile(tx, "auth.py", "python", 2)
		if err != nil {
			return err
		}
		sid, err := db.InsertSymbol(tx, fid, "login", "function", 1, 2)
		if err != nil {
			return err
		}
		if err := db.InsertRelation(tx, sid, "verify", storage.RelationCalls, fid, 2); err != nil {
			return err
		}
		return db.ResolveRelationTargets(tx)
	})
	if err != nil {
		t.Fatal(err)
	}
	return db
}

func TestSummarizePRImpact(t *testing.T) {
	repo := gitRepoWithTwoCommits(t)
	db := seededDB(t)

	out, err := SummarizePRImpact(repo, db, "v1", "v2")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "`auth.py`") {
		t.Errorf("changed file missing from summary:\n%s", out)
	}
	if !strings.Contains(out, "`verify`") {
		t.Errorf("impacted symbol missing from summary:\n%s", out)
	}
}

func TestMigrationGuide(t *testing.T) {
	repo := gitRepoWithTwoCommits(t)

	out, err := MigrationGuide(repo, "v1", "v2")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"# Migration Guide: v1 -> v2", "auth.py", "Suggested Upgrade Steps"} {
		if !strings.Contains(out, want) {
			t.Errorf("guide missing %q:\n%s", want, out)
		}
	}
}

func TestBadRefFailsWithGitError(t *testing.T) {
	repo := gitRepoWithTwoCommits(t)

	_, err := MigrationGuide(repo, "v1", "no-such-ref")
	if err == nil {
		t.Fatal("expected error for unknown ref")
	}
	if code := cbgerrors.CodeOf(err); code != cbgerrors.GitFailed {
		t.Errorf("error code = %s, want GIT_FAILED", code)
	}
}
