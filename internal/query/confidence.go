package query

import (
	"cbg/internal/config"
)

// Decision is the outcome of the confidence and abstain policy.
type Decision struct {
	Confidence float64
	Band       string // high, medium, low
	NeedsHuman bool
	Mode       string // answer or escalate
}

const (
	ModeAnswer   = "answer"
	ModeEscalate = "escalate"

	BandHigh   = "high"
	BandMedium = "medium"
	BandLow    = "low"
)

// Evaluate derives confidence from the ranked evidence and applies the
// abstain policy. Confidence blends the top score, term coverage, and
// evidence volume; it is a pure function of its inputs.
//
// Below minConfidence (or with zero evidence) the answer is flagged
// needs_human but still returned. A sensitive question whose confidence
// exceeds flaggedMaxConfidence is forced into escalate mode: confident
// automated answers on sensitive topics are the riskiest failure mode, so
// they are deliberately throttled.
func Evaluate(items []EvidenceItem, terms []Term, th config.ThresholdsConfig, topK int, flags []string) Decision {
	confidence := 0.0
	if len(items) > 0 {
		top := items[0].Score
		if top > 1 {
			top = 1
		}
		volume := float64(len(items)) / float64(topK)
		if volume > 1 {
			volume = 1
		}
		confidence = 0.5*top + 0.3*termCoverage(items, terms) + 0.2*volume
	}

	dec := Decision{
		Confidence: confidence,
		Band:       band(confidence),
		NeedsHuman: len(items) == 0 || confidence < th.MinConfidence,
		Mode:       ModeAnswer,
	}

	if len(flags) > 0 && confidence > th.FlaggedMaxConfidence {
		dec.Mode = ModeEscalate
		dec.NeedsHuman = true
	}
	return dec
}

// termCoverage is the fraction of query terms matched by at least one item.
func termCoverage(items []EvidenceItem, terms []Term) float64 {
	if len(terms) == 0 {
		return 0
	}
	covered := 0
	for _, t := range terms {
		for _, item := range items {
			if itemMatchesTerm(item, t.Text) {
				covered++
				break
			}
		}
	}
	return float64(covered) / float64(len(terms))
}

func band(confidence float64) string {
	switch {
	case confidence >= 0.7:
		return BandHigh
	case confidence >= 0.4:
		return BandMedium
	default:
		return BandLow
	}
}
