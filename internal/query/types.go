// Package query is the retrieval-and-ranking engine: it turns a question
// into terms, gathers graph evidence, scores it, derives confidence with an
// abstain policy, and composes a structured answer.
package query

import (
	"cbg/internal/storage"
)

// TermKind tags how a term was extracted.
type TermKind string

const (
	TermIdentifier TermKind = "identifier"
	TermTopic      TermKind = "topic"
)

// Term is one candidate search term from the question.
type Term struct {
	Text string   `json:"text"`
	Kind TermKind `json:"kind"`
}

// QueryContext is the ephemeral per-question state. It is never persisted.
type QueryContext struct {
	Question string
	Terms    []Term
	// PathHint optionally narrows owner lookup to a repo path.
	PathHint string
}

// EvidenceKind tags how an item was found.
type EvidenceKind string

const (
	// EvidenceDirect is an exact or substring symbol-name match.
	EvidenceDirect EvidenceKind = "direct"
	// EvidenceCallPath is a symbol reached over calls edges from a match.
	EvidenceCallPath EvidenceKind = "call_path"
	// EvidenceFile is a file-path match used when no symbol matched.
	EvidenceFile EvidenceKind = "file"
)

// EvidenceItem is one candidate fact surfaced for a question. Every item
// references a persisted symbol or file; call-path items also carry the
// relation path that reached them.
type EvidenceItem struct {
	Kind   EvidenceKind       `json:"kind"`
	Symbol *storage.Symbol    `json:"symbol,omitempty"`
	File   *storage.File      `json:"file,omitempty"`
	Path   []storage.Relation `json:"path,omitempty"`
	Hops   int                `json:"hops,omitempty"`
	Score  float64            `json:"score"`
	Rank   int                `json:"rank"`
}

// Component is an evidence item rendered for the response.
type Component struct {
	Description string  `json:"description"`
	Path        string  `json:"path"`
	Line        int     `json:"line,omitempty"`
	Kind        string  `json:"kind"`
	Hops        int     `json:"hops,omitempty"`
	Score       float64 `json:"score"`
}

// AnswerResponse is the structured answer. Immutable once returned.
type AnswerResponse struct {
	Question    string      `json:"question"`
	Terms       []string    `json:"terms"`
	Answer      string      `json:"answer"`
	Components  []Component `json:"components"`
	Uncertainty string      `json:"uncertainty"`
	Confidence  float64     `json:"confidence"`
	Band        string      `json:"confidence_band"`
	NeedsHuman  bool        `json:"needs_human"`
	Mode        string      `json:"mode"` // answer or escalate
	Flags       []string    `json:"flags,omitempty"`
	Owners      []string    `json:"owners,omitempty"`
	NextActions []string    `json:"next_actions,omitempty"`
	Rewritten   bool        `json:"rewritten,omitempty"`
}

// Store is the read-only graph surface the engine consumes. *storage.DB
// implements it; tests may substitute a seeded store.
type Store interface {
	LookupSymbolsByName(term string) ([]storage.Symbol, error)
	LookupFileByPath(term string) (*storage.File, error)
	OutgoingRelations(symbolID int64, kind storage.RelationKind) ([]storage.Relation, error)
	SymbolByID(id int64) (*storage.Symbol, error)
	InboundCounts() (map[int64]int, error)
}

// OwnerResolver resolves owners for evidence file paths.
type OwnerResolver interface {
	OwnersForPaths(paths []string) []string
}
