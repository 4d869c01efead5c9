package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cbgerrors "cbg/internal/errors"
)

var callersCmd = &cobra.Command{
	Use:   "callers [symbol]",
	Short: "List call sites that target a symbol",
	Args:  cobra.ExactArgs(1),
	Run:   runCallers,
}

func init() {
	rootCmd.AddCommand(callersCmd)
}

func runCallers(cmd *cobra.Command, args []string) {
	name := args[0]
	repoRoot := mustGetRepoRoot()
	cfg := mustLoadConfig(repoRoot)
	logger := newLogger(cfg)

	db := mustOpenExistingStore(repoRoot, logger)
	defer db.Close()

	syms, err := db.LookupSymbolsByName(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(syms) == 0 {
		err := cbgerrors.New(cbgerrors.SymbolNotFound, fmt.Sprintf("no symbol named %q in index", name), nil)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	sites, err := db.CallersOf(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if formatFlag == "json" {
		_ = printJSON(sites)
		return
	}
	if len(sites) == 0 {
		fmt.Printf("No indexed callers of %s\n", name)
		return
	}
	for _, s := range sites {
		caller := s.Caller
		if caller == "" {
			caller = "<file scope>"
		}
		fmt.Printf("%s:%d  %s\n", s.Path, s.Line, caller)
	}
}
