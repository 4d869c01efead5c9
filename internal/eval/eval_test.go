package eval

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cbg/internal/query"
)

type scriptedAnswerer struct {
	responses map[string]*query.AnswerResponse
}

func (s scriptedAnswerer) Ask(ctx context.Context, question string) (*query.AnswerResponse, error) {
	if resp, ok := s.responses[question]; ok {
		return resp, nil
	}
	return &query.AnswerResponse{Answer: "No matching code evidence was found.", NeedsHuman: true}, nil
}

func writeDataset(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eval.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))
	return path
}

func TestRunAggregates(t *testing.T) {
	dataset := writeDataset(t, `
{"question": "where is login?", "must_include": ["auth.py"]}
{"question": "where is checkout?", "must_include": ["shop.py", "checkout"]}
{"question": "meaning of life?"}
`)
	answerer := scriptedAnswerer{responses: map[string]*query.AnswerResponse{
		"where is login?": {
			Answer: "Relevant components: `login` (function, auth.py).", Confidence: 0.8,
		},
		"where is checkout?": {
			// Missing shop.py, so must_include fails.
			Answer: "Relevant components: `checkout` (function, store.py).", Confidence: 0.6,
		},
		"meaning of life?": {
			Answer: "No matching code evidence was found.", Confidence: 0.0, NeedsHuman: true,
		},
	}}

	report, err := Run(context.Background(), answerer, dataset)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Cases)
	// One explicit hit plus the case with no must_include tokens.
	assert.InDelta(t, 0.667, report.ContainsRate, 0.001)
	assert.InDelta(t, 0.467, report.AvgConfidence, 0.001)
	assert.InDelta(t, 0.333, report.NeedsHumanRate, 0.001)
}

func TestRunEmptyDataset(t *testing.T) {
	dataset := writeDataset(t, "\n\n")
	report, err := Run(context.Background(), scriptedAnswerer{}, dataset)
	require.NoError(t, err)
	assert.Zero(t, report.Cases)
}

func TestRunMalformedLine(t *testing.T) {
	dataset := writeDataset(t, "{not json}\n")
	_, err := Run(context.Background(), scriptedAnswerer{}, dataset)
	assert.Error(t, err)
}
