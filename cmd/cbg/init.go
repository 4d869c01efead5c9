package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"cbg/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to .cbg/config.json",
	Run:   runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) {
	repoRoot := mustGetRepoRoot()
	path := filepath.Join(repoRoot, ".cbg", "config.json")

	if _, err := os.Stat(path); err == nil && !initForce {
		fmt.Fprintf(os.Stderr, "Error: %s already exists (use --force to overwrite)\n", path)
		os.Exit(1)
	}

	cfg := config.Default()
	cfg.RepoRoot = repoRoot
	if err := cfg.Save(repoRoot); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", path)
}
