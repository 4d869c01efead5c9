package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"cbg/internal/config"
	"cbg/internal/logging"
	"cbg/internal/storage"
	"cbg/internal/version"
)

var (
	repoFlag   string
	formatFlag string
)

var rootCmd = &cobra.Command{
	Use:   "cbg",
	Short: "cbg - codebase graph question answering",
	Long: `cbg indexes a source repository into a graph of files, symbols, and
relations, then answers natural-language engineering questions with
evidence-grounded, confidence-scored responses.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("cbg version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&repoFlag, "repo", ".", "Repository root")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", "human", "Output format (json, human)")
}

func mustGetRepoRoot() string {
	abs, err := filepath.Abs(repoFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid repo path %q: %v\n", repoFlag, err)
		os.Exit(1)
	}
	return abs
}

// mustLoadConfig loads and validates configuration, failing fast on
// malformed thresholds before any query runs.
func mustLoadConfig(repoRoot string) *config.Config {
	cfg, err := config.Load(repoRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func newLogger(cfg *config.Config) *logging.Logger {
	return logging.New(logging.Config{
		Format: logging.Format(cfg.Logging.Format),
		Level:  logging.ParseLevel(cfg.Logging.Level),
	})
}

func graphPath(repoRoot string) string {
	return filepath.Join(repoRoot, ".cbg", "graph.db")
}

// mustOpenExistingStore opens the graph for query commands; a missing index
// is a fail-fast error with no fallback.
func mustOpenExistingStore(repoRoot string, logger *logging.Logger) *storage.DB {
	db, err := storage.OpenExisting(graphPath(repoRoot), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return db
}
