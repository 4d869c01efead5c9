package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cbg/internal/llm"
	"cbg/internal/ownership"
	"cbg/internal/query"
	"cbg/internal/telemetry"
)

var (
	askHint        string
	askLLM         bool
	askNoTelemetry bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question about the indexed codebase",
	Long: `Extracts terms from the question, gathers graph evidence, and composes a
confidence-scored answer. Low-confidence answers are flagged needs_human;
sensitive, high-confidence answers are escalated for review.`,
	Args: cobra.MinimumNArgs(1),
	Run:  runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askHint, "hint", "", "Repo path hint for owner lookup")
	askCmd.Flags().BoolVar(&askLLM, "llm", false, "Rewrite the answer with the configured LLM")
	askCmd.Flags().BoolVar(&askNoTelemetry, "no-telemetry", false, "Skip the telemetry record for this question")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) {
	question := strings.Join(args, " ")
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

	var rewriter llm.Rewriter
	if askLLM || cfg.LLM.Enabled {
		cfg.LLM.Enabled = true
		if rw := llm.NewOpenAIRewriter(cfg.LLM.Model, time.Duration(cfg.LLM.TimeoutMs)*time.Millisecond); rw != nil {
			rewriter = rw
		} else {
			logger.Warn("OPENAI_API_KEY not set, using template answers", nil)
		}
	}

	sink := telemetry.NewSink(repoRoot, !askNoTelemetry)
	engine := query.New(db, cfg, owners, rewriter, sink, logger)

	resp, err := engine.Answer(context.Background(), query.Request{
		Question: question,
		PathHint: askHint,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := printAnswer(resp, formatFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
