// Package ownership resolves owners for file paths, consulting the optional
// .cbg/owners.yaml map first and falling back to CODEOWNERS.
package ownership

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Resolver answers OwnersForPath lookups for one repository.
type Resolver struct {
	mapped map[string][]string // prefix -> owners, from owners.yaml
	rules  []codeownersRule
}

type codeownersRule struct {
	pattern string
	owners  []string
}

// NewResolver loads ownership data from repoRoot. Missing files are not an
// error; the resolver simply answers with no owners.
func NewResolver(repoRoot string) (*Resolver, error) {
	r := &Resolver{}

	if err := r.loadOwnersMap(filepath.Join(repoRoot, ".cbg", "owners.yaml")); err != nil {
		return nil, err
	}

	for _, loc := range []string{
		filepath.Join(repoRoot, "CODEOWNERS"),
		filepath.Join(repoRoot, ".github", "CODEOWNERS"),
		filepath.Join(repoRoot, "docs", "CODEOWNERS"),
	} {
		if _, err := os.Stat(loc); err == nil {
			if err := r.loadCodeowners(loc); err != nil {
				return nil, err
			}
			break
		}
	}
	return r, nil
}

func (r *Resolver) loadOwnersMap(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var doc struct {
		Owners map[string][]string `yaml:"owners"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	r.mapped = doc.Owners
	return nil
}

func (r *Resolver) loadCodeowners(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		r.rules = append(r.rules, codeownersRule{pattern: fields[0], owners: fields[1:]})
	}
	return nil
}

// OwnersForPath returns the sorted owner set for a repo-relative path.
// owners.yaml prefixes win over CODEOWNERS rules; among map prefixes the
// longest match wins, so resolution is deterministic.
func (r *Resolver) OwnersForPath(path string) []string {
	path = filepath.ToSlash(path)

	for _, prefix := range r.prefixesByLength() {
		if matchPrefix(prefix, path) {
			return sorted(r.mapped[prefix])
		}
	}

	// CODEOWNERS semantics: the last matching rule wins.
	var matched []string
	for _, rule := range r.rules {
		if matchRule(rule.pattern, path) {
			matched = rule.owners
		}
	}
	return sorted(matched)
}

// OwnersForPaths unions owners across several paths.
func (r *Resolver) OwnersForPaths(paths []string) []string {
	set := map[string]bool{}
	for _, p := range paths {
		for _, o := range r.OwnersForPath(p) {
			set[o] = true
		}
	}
	owners := make([]string, 0, len(set))
	for o := range set {
		owners = append(owners, o)
	}
	sort.Strings(owners)
	return owners
}

// prefixesByLength orders owners.yaml prefixes longest first, ties broken
// lexically.
func (r *Resolver) prefixesByLength() []string {
	prefixes := make([]string, 0, len(r.mapped))
	for prefix := range r.mapped {
		prefixes = append(prefixes, prefix)
	}
	sort.Slice(prefixes, func(i, j int) bool {
		if len(prefixes[i]) != len(prefixes[j]) {
			return len(prefixes[i]) > len(prefixes[j])
		}
		return prefixes[i] < prefixes[j]
	})
	return prefixes
}

func matchPrefix(prefix, path string) bool {
	prefix = strings.TrimPrefix(filepath.ToSlash(prefix), "/")
	if prefix == "*" || prefix == "" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/")
}

// matchRule handles the common CODEOWNERS pattern shapes: "*", "/dir/",
// "*.ext", bare filenames, and path prefixes.
func matchRule(pattern, path string) bool {
	pattern = strings.TrimPrefix(filepath.ToSlash(pattern), "/")

	switch {
	case pattern == "*":
		return true
	case strings.HasPrefix(pattern, "*."):
		return strings.HasSuffix(path, pattern[1:])
	case strings.HasSuffix(pattern, "/"):
		return strings.HasPrefix(path, pattern)
	default:
		trimmed := strings.TrimSuffix(pattern, "*")
		return path == pattern ||
			strings.HasPrefix(path, trimmed) ||
			strings.HasSuffix(path, "/"+pattern)
	}
}

func sorted(owners []string) []string {
	if len(owners) == 0 {
		return nil
	}
	out := append([]string(nil), owners...)
	sort.Strings(out)
	return out
}
