package query

import (
	"fmt"

	"cbg/internal/storage"
)

// Retrieve expands the term set into deduplicated evidence: direct symbol
// matches, hop-limited call paths from each match, and file-path matches for
// terms that hit no symbol. Read-only; item order is the traversal order the
// ranker relies on for flow boosting.
func Retrieve(store Store, qc QueryContext, hopLimit int) ([]EvidenceItem, error) {
	var items []EvidenceItem
	seen := map[string]bool{}

	add := func(key string, item EvidenceItem) {
		if seen[key] {
			return
		}
		seen[key] = true
		items = append(items, item)
	}

	for _, term := range qc.Terms {
		syms, err := store.LookupSymbolsByName(term.Text)
		if err != nil {
			return nil, err
		}

		for i := range syms {
			add(fmt.Sprintf("s:%d", syms[i].ID), EvidenceItem{
				Kind:   EvidenceDirect,
				Symbol: &syms[i],
			})
		}
		for i := range syms {
			if err := expandCalls(store, syms[i], hopLimit, add); err != nil {
				return nil, err
			}
		}

		if len(syms) == 0 {
			file, err := store.LookupFileByPath(term.Text)
			if err != nil {
				return nil, err
			}
			if file != nil {
				add(fmt.Sprintf("f:%d", file.ID), EvidenceItem{
					Kind: EvidenceFile,
					File: file,
				})
			}
		}
	}
	return items, nil
}

// expandCalls walks outgoing calls edges breadth-first up to hopLimit. The
// visited set is keyed by symbol id, so cycles (a calls b calls a) terminate
// and no symbol is enqueued twice per seed.
func expandCalls(store Store, seed storage.Symbol, hopLimit int, add func(string, EvidenceItem)) error {
	type node struct {
		symbolID int64
		path     []storage.Relation
	}

	visited := map[int64]bool{seed.ID: true}
	frontier := []node{{symbolID: seed.ID}}

	for len(frontier) > 0 {
		var next []node
		for _, n := range frontier {
			if len(n.path) >= hopLimit {
				continue
			}
			rels, err := store.OutgoingRelations(n.symbolID, storage.RelationCalls)
			if err != nil {
				return err
			}
			for _, rel := range rels {
				if rel.DstSymbolID == 0 || visited[rel.DstSymbolID] {
					continue
				}
				visited[rel.DstSymbolID] = true

				dst, err := store.SymbolByID(rel.DstSymbolID)
				if err != nil {
					return err
				}
				if dst == nil {
					continue
				}

				path := append(append([]storage.Relation(nil), n.path...), rel)
				add(fmt.Sprintf("r:%d", rel.ID), EvidenceItem{
					Kind:   EvidenceCallPath,
					Symbol: dst,
					Path:   path,
					Hops:   len(path),
				})
				next = append(next, node{symbolID: dst.ID, path: path})
			}
		}
		frontier = next
	}
	return nil
}
