// Package eval runs a JSONL dataset of questions against the engine and
// aggregates answer quality.
package eval

import (
	"bufio"
	"context"
	"encoding/json"
	"math"
	"os"
	"strings"

	"cbg/internal/query"
)

// Case is one eval dataset row.
type Case struct {
	Question    string   `json:"question"`
	MustInclude []string `json:"must_include,omitempty"`
}

// Report aggregates a run. Rates are rounded to three decimals.
type Report struct {
	Cases          int     `json:"cases"`
	AvgConfidence  float64 `json:"avg_confidence"`
	ContainsRate   float64 `json:"contains_rate"`
	NeedsHumanRate float64 `json:"needs_human_rate"`
}

// Answerer is the slice of the engine the runner needs.
type Answerer interface {
	Ask(ctx context.Context, question string) (*query.AnswerResponse, error)
}

// Run answers every case and reports the fraction whose answer contains all
// must_include tokens (case-insensitive), mean confidence, and abstain rate.
func Run(ctx context.Context, answerer Answerer, datasetPath string) (Report, error) {
	cases, err := loadCases(datasetPath)
	if err != nil {
		return Report{}, err
	}
	if len(cases) == 0 {
		return Report{}, nil
	}

	containsHits := 0
	confidenceSum := 0.0
	needsHuman := 0

	for _, c := range cases {
		resp, err := answerer.Ask(ctx, c.Question)
		if err != nil {
			return Report{}, err
		}

		answer := strings.ToLower(resp.Answer)
		hit := true
		for _, token := range c.MustInclude {
			if !strings.Contains(answer, strings.ToLower(token)) {
				hit = false
				break
			}
		}
		if hit {
			containsHits++
		}
		confidenceSum += resp.Confidence
		if resp.NeedsHuman {
			needsHuman++
		}
	}

	n := float64(len(cases))
	return Report{
		Cases:          len(cases),
		AvgConfidence:  round3(confidenceSum / n),
		ContainsRate:   round3(float64(containsHits) / n),
		NeedsHumanRate: round3(float64(needsHuman) / n),
	}, nil
}

func loadCases(path string) ([]Case, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cases []Case
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var c Case
		if err := json.Unmarshal([]byte(line), &c); err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, scanner.Err()
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
