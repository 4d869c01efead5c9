package query

import (
	"fmt"
	"strings"

	"cbg/internal/safety"
)

// Compose assembles the structured answer from ranked evidence and the
// policy decision. The direct answer is template-based; PII redaction runs
// over every generated string, including rendered evidence snippets.
func Compose(qc QueryContext, items []EvidenceItem, dec Decision, flags []string, owners OwnerResolver) *AnswerResponse {
	resp := &AnswerResponse{
		Question:    qc.Question,
		Terms:       termTexts(qc.Terms),
		Answer:      directAnswer(items),
		Components:  renderComponents(items),
		Uncertainty: uncertainty(dec),
		Confidence:  dec.Confidence,
		Band:        dec.Band,
		NeedsHuman:  dec.NeedsHuman,
		Mode:        dec.Mode,
		Flags:       flags,
	}

	if owners != nil {
		paths := evidencePaths(items)
		if qc.PathHint != "" {
			paths = append(paths, qc.PathHint)
		}
		resp.Owners = owners.OwnersForPaths(paths)
	}
	resp.NextActions = nextActions(items, dec, resp.Owners)

	redact(resp)
	return resp
}

func directAnswer(items []EvidenceItem) string {
	if len(items) == 0 {
		return "No matching code evidence was found for this question."
	}
	limit := 3
	if len(items) < limit {
		limit = len(items)
	}
	names := make([]string, 0, limit)
	for _, item := range items[:limit] {
		names = append(names, shortName(item))
	}
	return "Relevant components: " + strings.Join(names, ", ") + "."
}

func shortName(item EvidenceItem) string {
	if item.Symbol != nil {
		return fmt.Sprintf("`%s` (%s, %s)", item.Symbol.Name, item.Symbol.Kind, item.Symbol.FilePath)
	}
	if item.File != nil {
		return item.File.Path
	}
	return "unknown"
}

func renderComponents(items []EvidenceItem) []Component {
	out := make([]Component, 0, len(items))
	for _, item := range items {
		c := Component{
			Kind:  string(item.Kind),
			Hops:  item.Hops,
			Score: item.Score,
			Path:  itemPath(item),
		}
		switch {
		case item.Symbol != nil && item.Kind == EvidenceCallPath:
			c.Line = item.Symbol.StartLine
			c.Description = fmt.Sprintf("`%s` (%s) in %s:%d, reached via a %d-hop call path",
				item.Symbol.Name, item.Symbol.Kind, item.Symbol.FilePath, item.Symbol.StartLine, item.Hops)
		case item.Symbol != nil:
			c.Line = item.Symbol.StartLine
			c.Description = fmt.Sprintf("`%s` (%s) in %s:%d",
				item.Symbol.Name, item.Symbol.Kind, item.Symbol.FilePath, item.Symbol.StartLine)
		case item.File != nil:
			c.Description = fmt.Sprintf("%s (%s file, %d lines)",
				item.File.Path, item.File.Language, item.File.LineCount)
		}
		out = append(out, c)
	}
	return out
}

func uncertainty(dec Decision) string {
	if dec.Mode == ModeEscalate {
		return "This question touches a sensitive area; the answer is withheld from automated use and routed for human review."
	}
	switch dec.Band {
	case BandHigh:
		return "High confidence: the evidence closely matches the question."
	case BandMedium:
		return "Medium confidence: verify the referenced components before acting on this answer."
	default:
		return "Low confidence: treat this answer as a starting point, not a conclusion."
	}
}

func nextActions(items []EvidenceItem, dec Decision, owners []string) []string {
	var actions []string
	callSites := 0
	for _, item := range items {
		if item.Kind != EvidenceCallPath || len(item.Path) == 0 || callSites >= 3 {
			continue
		}
		last := item.Path[len(item.Path)-1]
		actions = append(actions, fmt.Sprintf("Inspect the call to `%s` at line %d.", item.Symbol.Name, last.Line))
		callSites++
	}
	if len(owners) > 0 {
		actions = append(actions, "Confirm with "+strings.Join(owners, ", ")+".")
	}
	if dec.NeedsHuman {
		actions = append(actions, "Route this question to a human reviewer.")
	}
	return actions
}

func redact(resp *AnswerResponse) {
	resp.Answer = safety.RedactPII(resp.Answer)
	resp.Uncertainty = safety.RedactPII(resp.Uncertainty)
	for i := range resp.Components {
		resp.Components[i].Description = safety.RedactPII(resp.Components[i].Description)
	}
	for i := range resp.NextActions {
		resp.NextActions[i] = safety.RedactPII(resp.NextActions[i])
	}
}
