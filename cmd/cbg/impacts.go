package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cbgerrors "cbg/internal/errors"
)

var impactsCmd = &cobra.Command{
	Use:   "impacts [symbol]",
	Short: "List everything that depends on a symbol",
	Long:  "Lists every indexed relation targeting the symbol: calls, imports, inheritance, references.",
	Args:  cobra.ExactArgs(1),
	Run:   runImpacts,
}

func init() {
	rootCmd.AddCommand(impactsCmd)
}

func runImpacts(cmd *cobra.Command, args []string) {
	name := args[0]
	repoRoot := mustGetRepoRoot()
	cfg := mustLoadConfig(repoRoot)
	logger := newLogger(cfg)

	db := mustOpenExistingStore(repoRoot, logger)
	defer db.Close()

	impacts, err := db.ImpactsOf(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(impacts) == 0 {
		err := cbgerrors.New(cbgerrors.SymbolNotFound, fmt.Sprintf("nothing in the index depends on %q", name), nil)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if formatFlag == "json" {
		_ = printJSON(impacts)
		return
	}
	for _, im := range impacts {
		dep := im.Dependent
		if dep == "" {
			dep = "<file scope>"
		}
		fmt.Printf("%-10s %s:%d  %s\n", im.Kind, im.Path, im.Line, dep)
	}
}
