package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cbg/internal/review"
)

var (
	migrationFrom string
	migrationTo   string
)

var migrationCmd = &cobra.Command{
	Use:   "migration-guide",
	Short: "Generate a migration guide between two git refs",
	Run:   runMigrationGuide,
}

func init() {
	migrationCmd.Flags().StringVar(&migrationFrom, "from", "", "Starting ref (required)")
	migrationCmd.Flags().StringVar(&migrationTo, "to", "HEAD", "Target ref")
	_ = migrationCmd.MarkFlagRequired("from")
	rootCmd.AddCommand(migrationCmd)
}

func runMigrationGuide(cmd *cobra.Command, args []string) {
	repoRoot := mustGetRepoRoot()

	guide, err := review.MigrationGuide(repoRoot, migrationFrom, migrationTo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(guide)
}
