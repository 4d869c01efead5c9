package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cbg/internal/eval"
	"cbg/internal/ownership"
	"cbg/internal/query"
)

var evalDataset string

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Run a JSONL eval dataset against the engine",
	Long: `Each dataset line is {"question": ..., "must_include": [...]}. Reports the
fraction of answers containing all expected tokens, mean confidence, and the
needs_human rate.`,
	Run: runEval,
}

func init() {
	evalCmd.Flags().StringVar(&evalDataset, "dataset", ".cbg/eval.jsonl", "Path to the JSONL dataset")
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, args []string) {
	repoRoot := mustGetRepoRoot()
	cfg := mustLoadConfig(repoRoot)
	logger := newLogger(cfg)

	db := mustOpenExistingStore(repoRoot, logger)
	defer db.Close()

	owners, err := ownership.NewResolver(repoRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	engine := query.New(db, cfg, owners, nil, nil, logger)

	report, err := eval.Run(context.Background(), engine, evalDataset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if formatFlag == "json" {
		_ = printJSON(report)
		return
	}
	fmt.Printf("Cases: %d\n", report.Cases)
	fmt.Printf("Contains rate: %.3f\n", report.ContainsRate)
	fmt.Printf("Avg confidence: %.3f\n", report.AvgConfidence)
	fmt.Printf("Needs-human rate: %.3f\n", report.NeedsHumanRate)
}
