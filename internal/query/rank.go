package query

import (
	"sort"
	"strings"

	"cbg/internal/config"
)

// Rank scores evidence and returns a stable ordering truncated to topK.
//
// Score = wTerm*overlap + wKind*kindWeight + wPath*1/(1+hops) + wImp*importance,
// plus a flow boost for call-path items whose caller already scored at or
// above the boost floor. Boosts accumulate in a single pass over traversal
// order, so ranking stays deterministic. Ties break on symbol id then
// relation id, making the order total.
func Rank(items []EvidenceItem, qc QueryContext, weights config.RankingConfig, inbound map[int64]int, topK int) []EvidenceItem {
	maxInbound := 0
	for _, n := range inbound {
		if n > maxInbound {
			maxInbound = n
		}
	}

	scored := map[int64]float64{}
	for i := range items {
		item := &items[i]
		score := weights.TermOverlap*termOverlap(*item, qc.Terms) +
			weights.RelationKind*kindWeight(*item) +
			weights.PathLength*(1.0/float64(1+item.Hops)) +
			weights.Importance*importance(*item, inbound, maxInbound)

		if item.Kind == EvidenceCallPath && len(item.Path) > 0 {
			caller := item.Path[len(item.Path)-1].SrcSymbolID
			if callerScore, ok := scored[caller]; ok && callerScore >= weights.FlowBoostFloor {
				score += weights.FlowBoost * callerScore
			}
		}
		item.Score = score

		if item.Symbol != nil && score > scored[item.Symbol.ID] {
			scored[item.Symbol.ID] = score
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		si, sj := tieSymbolID(items[i]), tieSymbolID(items[j])
		if si != sj {
			return si < sj
		}
		return tieRelationID(items[i]) < tieRelationID(items[j])
	})

	if len(items) > topK {
		items = items[:topK]
	}
	for i := range items {
		items[i].Rank = i + 1
	}
	return items
}

func kindWeight(item EvidenceItem) float64 {
	switch item.Kind {
	case EvidenceDirect:
		return 1.0
	case EvidenceCallPath:
		if item.Hops <= 1 {
			return 0.8
		}
		return 0.6
	default:
		return 0.4
	}
}

// termOverlap is the fraction of query terms matched by the item's symbol or
// file name.
func termOverlap(item EvidenceItem, terms []Term) float64 {
	if len(terms) == 0 {
		return 0
	}
	matched := 0
	for _, t := range terms {
		if itemMatchesTerm(item, t.Text) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

func itemMatchesTerm(item EvidenceItem, term string) bool {
	term = strings.ToLower(term)
	if item.Symbol != nil {
		return strings.Contains(strings.ToLower(item.Symbol.Name), term) ||
			strings.Contains(strings.ToLower(item.Symbol.FilePath), term)
	}
	if item.File != nil {
		return strings.Contains(strings.ToLower(item.File.Path), term)
	}
	return false
}

// importance normalizes inbound reference counts. Missing metadata is
// neutral (0.5), never zero.
func importance(item EvidenceItem, inbound map[int64]int, maxInbound int) float64 {
	if item.Symbol == nil || maxInbound == 0 {
		return 0.5
	}
	n, ok := inbound[item.Symbol.ID]
	if !ok {
		return 0.5
	}
	return float64(n) / float64(maxInbound)
}

func tieSymbolID(item EvidenceItem) int64 {
	if item.Symbol != nil {
		return item.Symbol.ID
	}
	return 0
}

func tieRelationID(item EvidenceItem) int64 {
	if len(item.Path) > 0 {
		return item.Path[len(item.Path)-1].ID
	}
	return 0
}

// evidencePaths returns distinct file paths of the ranked items in order.
func evidencePaths(items []EvidenceItem) []string {
	var paths []string
	seen := map[string]bool{}
	for _, item := range items {
		p := itemPath(item)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		paths = append(paths, p)
	}
	return paths
}

func itemPath(item EvidenceItem) string {
	if item.Symbol != nil {
		return item.Symbol.FilePath
	}
	if item.File != nil {
		return item.File.Path
	}
	return ""
}
