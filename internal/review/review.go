// Package review produces PR-impact summaries and migration guides from git
// diffs combined with the indexed graph.
package review

import (
	"fmt"
	"os/exec"
	"strings"

	cbgerrors "cbg/internal/errors"
	"cbg/internal/storage"
)

const impactLimit = 200

// git runs a git subcommand in repoRoot. A non-zero exit is surfaced as
// GIT_FAILED with stderr attached.
func git(repoRoot string, args ...string) (string, error) {
	cmd := exec.Command("git", append([]string{"-C", repoRoot}, args...)...)
	var out, errBuf strings.Builder
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(errBuf.String())
		if msg == "" {
			msg = "git " + strings.Join(args, " ")
		}
		return "", cbgerrors.New(cbgerrors.GitFailed, msg, err)
	}
	return out.String(), nil
}

func changedFiles(repoRoot, base, head string) ([]string, error) {
	out, err := git(repoRoot, "diff", "--name-only", base+".."+head)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

// SummarizePRImpact lists the files changed between two refs and the indexed
// symbols those files depend on (the change's first-order blast radius).
func SummarizePRImpact(repoRoot string, db *storage.DB, base, head string) (string, error) {
	changed, err := changedFiles(repoRoot, base, head)
	if err != nil {
		return "", err
	}
	if len(changed) == 0 {
		return "No file changes found between refs.", nil
	}

	impacted, err := db.ImpactedByFiles(changed, impactLimit)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("# PR Impact Summary\n\n## Changed files\n")
	for _, p := range changed {
		fmt.Fprintf(&b, "- `%s`\n", p)
	}
	b.WriteString("\n## Potentially impacted symbols\n")
	if len(impacted) == 0 {
		b.WriteString("- No impacted symbols found in index for changed files.\n")
	}
	for _, s := range impacted {
		fmt.Fprintf(&b, "- `%s`\n", s)
	}
	return b.String(), nil
}

// MigrationGuide renders a diff summary between two refs with fixed upgrade
// steps.
func MigrationGuide(repoRoot, fromRef, toRef string) (string, error) {
	stat, err := git(repoRoot, "diff", "--stat", fromRef+".."+toRef)
	if err != nil {
		return "", err
	}
	status, err := git(repoRoot, "diff", "--name-status", fromRef+".."+toRef)
	if err != nil {
		return "", err
	}

	stat = strings.TrimSpace(stat)
	if stat == "" {
		stat = "No changes."
	}
	status = strings.TrimSpace(status)
	if status == "" {
		status = "No changed files."
	}

	return strings.Join([]string{
		fmt.Sprintf("# Migration Guide: %s -> %s", fromRef, toRef),
		"",
		"## Diff Summary",
		stat,
		"",
		"## Changed Files",
		"```",
		status,
		"```",
		"",
		"## Suggested Upgrade Steps",
		"1. Review breaking API or schema changes in modified modules.",
		"2. Re-run indexing and inspect impacted symbols.",
		"3. Run targeted tests around changed files first, then the full suite.",
	}, "\n"), nil
}
