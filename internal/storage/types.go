package storage

// RelationKind enumerates the directed edge kinds in the code graph.
type RelationKind string

const (
	RelationCalls      RelationKind = "calls"
	RelationImports    RelationKind = "imports"
	RelationInherits   RelationKind = "inherits"
	RelationReferences RelationKind = "references"
)

// File is an indexed source file. Files are replaced wholesale on re-index.
type File struct {
	ID        int64  `json:"id"`
	Path      string `json:"path"`
	Language  string `json:"language"`
	LineCount int    `json:"lineCount"`
	IndexedAt string `json:"indexedAt"`
}

// Symbol is a named code entity extracted from a file.
type Symbol struct {
	ID        int64  `json:"id"`
	FileID    int64  `json:"fileId"`
	FilePath  string `json:"filePath"`
	Name      string `json:"name"`
	Kind      string `json:"kind"` // function, method, class, module
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
}

// Relation is a directed edge from a symbol to a symbol or a bare name.
// DstSymbolID is zero when the target is unresolved (external or dynamic).
type Relation struct {
	ID          int64        `json:"id"`
	SrcSymbolID int64        `json:"srcSymbolId"`
	DstSymbolID int64        `json:"dstSymbolId,omitempty"`
	DstName     string       `json:"dstName"`
	Kind        RelationKind `json:"kind"`
	FileID      int64        `json:"fileId"`
	Line        int          `json:"line,omitempty"`
}

// Stats summarizes the indexed graph.
type Stats struct {
	Files     int `json:"files"`
	Symbols   int `json:"symbols"`
	Relations int `json:"relations"`
}

// RankedSymbol is a symbol with its inbound reference count, used for
// importance weighting and the architecture overview.
type RankedSymbol struct {
	Symbol
	InboundRefs int `json:"inboundRefs"`
}
