package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cbg/internal/storage"
	"cbg/internal/version"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index statistics and effective thresholds",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

type statusResponse struct {
	Version              string        `json:"version"`
	GraphPath            string        `json:"graphPath"`
	Indexed              bool          `json:"indexed"`
	Stats                storage.Stats `json:"stats"`
	MinConfidence        float64       `json:"minConfidence"`
	FlaggedMaxConfidence float64       `json:"flaggedMaxConfidence"`
	HopLimit             int           `json:"hopLimit"`
	TopK                 int           `json:"topK"`
}

func runStatus(cmd *cobra.Command, args []string) {
	repoRoot := mustGetRepoRoot()
	cfg := mustLoadConfig(repoRoot)
	logger := newLogger(cfg)

	resp := statusResponse{
		Version:              version.Info(),
		GraphPath:            graphPath(repoRoot),
		MinConfidence:        cfg.Thresholds.MinConfidence,
		FlaggedMaxConfidence: cfg.Thresholds.FlaggedMaxConfidence,
		HopLimit:             cfg.Ask.HopLimit,
		TopK:                 cfg.Ask.TopK,
	}

	if db, err := storage.OpenExisting(resp.GraphPath, logger); err == nil {
		defer db.Close()
		stats, err := db.Stats()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		resp.Indexed = true
		resp.Stats = stats
	}

	if formatFlag == "json" {
		_ = printJSON(resp)
		return
	}
	fmt.Printf("cbg %s\n", resp.Version)
	if resp.Indexed {
		fmt.Printf("Graph: %s (%d files, %d symbols, %d relations)\n",
			resp.GraphPath, resp.Stats.Files, resp.Stats.Symbols, resp.Stats.Relations)
	} else {
		fmt.Printf("Graph: not indexed yet (run `cbg index`)\n")
	}
	fmt.Printf("Thresholds: minConfidence=%.2f flaggedMaxConfidence=%.2f\n",
		resp.MinConfidence, resp.FlaggedMaxConfidence)
	fmt.Printf("Retrieval: hopLimit=%d topK=%d\n", resp.HopLimit, resp.TopK)
}
