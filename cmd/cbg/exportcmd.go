package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"cbg/internal/export"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the graph as zstd-compressed JSON",
	Run:   runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", ".cbg/graph.json.zst", "Output file (relative to repo root)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) {
	repoRoot := mustGetRepoRoot()
	cfg := mustLoadConfig(repoRoot)
	logger := newLogger(cfg)

	db := mustOpenExistingStore(repoRoot, logger)
	defer db.Close()

	out := exportOut
	if !filepath.IsAbs(out) {
		out = filepath.Join(repoRoot, out)
	}
	if err := export.WriteGraph(db, out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", out)
}
