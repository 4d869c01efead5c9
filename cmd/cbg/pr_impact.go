package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cbg/internal/review"
)

var (
	prBase string
	prHead string
)

var prImpactCmd = &cobra.Command{
	Use:   "pr-impact",
	Short: "Summarize the blast radius of a change between two git refs",
	Run:   runPRImpact,
}

func init() {
	prImpactCmd.Flags().StringVar(&prBase, "base", "main", "Base ref")
	prImpactCmd.Flags().StringVar(&prHead, "head", "HEAD", "Head ref")
	rootCmd.AddCommand(prImpactCmd)
}

func runPRImpact(cmd *cobra.Command, args []string) {
	repoRoot := mustGetRepoRoot()
	cfg := mustLoadConfig(repoRoot)
	logger := newLogger(cfg)

	db := mustOpenExistingStore(repoRoot, logger)
	defer db.Close()

	summary, err := review.SummarizePRImpact(repoRoot, db, prBase, prHead)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(summary)
}
