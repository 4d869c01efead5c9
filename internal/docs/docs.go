// Package docs generates an architecture overview from the indexed graph.
package docs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cbg/internal/storage"
)

const topSymbolLimit = 20

// GenerateArchitectureDoc writes a markdown overview of the indexed graph:
// counts plus the most-referenced symbols.
func GenerateArchitectureDoc(db *storage.DB, outPath string) error {
	stats, err := db.Stats()
	if err != nil {
		return err
	}
	top, err := db.TopSymbols(topSymbolLimit)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("# Generated Architecture Overview\n\n")
	fmt.Fprintf(&b, "- Files indexed: **%d**\n", stats.Files)
	fmt.Fprintf(&b, "- Symbols indexed: **%d**\n", stats.Symbols)
	fmt.Fprintf(&b, "- Relations indexed: **%d**\n\n", stats.Relations)
	b.WriteString("## Most referenced symbols\n\n")

	if len(top) == 0 {
		b.WriteString("No symbols indexed yet.\n")
	}
	for _, sym := range top {
		fmt.Fprintf(&b, "- `%s` (%s) in %s, inbound refs: %d\n",
			sym.Name, sym.Kind, sym.FilePath, sym.InboundRefs)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outPath, []byte(b.String()), 0o644)
}
