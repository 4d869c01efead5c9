package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"cbg/internal/docs"
)

var docsOut string

var docsCmd = &cobra.Command{
	Use:   "generate-docs",
	Short: "Generate an architecture overview from the index",
	Run:   runGenerateDocs,
}

func init() {
	docsCmd.Flags().StringVar(&docsOut, "out", "ARCHITECTURE.md", "Output file (relative to repo root)")
	rootCmd.AddCommand(docsCmd)
}

func runGenerateDocs(cmd *cobra.Command, args []string) {
	repoRoot := mustGetRepoRoot()
	cfg := mustLoadConfig(repoRoot)
	logger := newLogger(cfg)

	db := mustOpenExistingStore(repoRoot, logger)
	defer db.Close()

	out := docsOut
	if !filepath.IsAbs(out) {
		out = filepath.Join(repoRoot, out)
	}
	if err := docs.GenerateArchitectureDoc(db, out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", out)
}
