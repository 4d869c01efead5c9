package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cbg/internal/indexer"
	"cbg/internal/storage"
)

var indexNoReset bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the code graph for the repository",
	Long: `Walks the repository, extracts symbols and relations with tree-sitter,
and stores them in .cbg/graph.db. Existing data is replaced wholesale unless
--no-reset is given.`,
	Run: runIndexCmd,
}

func init() {
	indexCmd.Flags().BoolVar(&indexNoReset, "no-reset", false, "Keep existing graph data and index on top of it")
	rootCmd.AddCommand(indexCmd)
}

func runIndexCmd(cmd *cobra.Command, args []string) {
	repoRoot := mustGetRepoRoot()
	cfg := mustLoadConfig(repoRoot)
	logger := newLogger(cfg)

	db, err := storage.Open(repoRoot, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	stats, err := indexer.New(db, logger).Run(context.Background(), repoRoot, !indexNoReset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if formatFlag == "json" {
		_ = printJSON(stats)
		return
	}
	fmt.Printf("Indexed %d files, %d symbols, %d relations\n", stats.Files, stats.Symbols, stats.Relations)
}
