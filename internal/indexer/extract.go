package indexer

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"cbg/internal/storage"
)

// SymbolDecl is a symbol found in one file, before persistence.
type SymbolDecl struct {
	Name      string
	Kind      string // function, method, class
	Container string // enclosing class name for methods
	StartLine int
	EndLine   int
}

// RelationDecl is a relation found in one file. SrcName is the enclosing
// symbol, empty for file scope; DstName stays unresolved until the store
// links it to a symbol id.
type RelationDecl struct {
	SrcName string
	DstName string
	Kind    storage.RelationKind
	Line    int
}

// FileIndex is the extraction result for a single file.
type FileIndex struct {
	Language  Language
	LineCount int
	Symbols   []SymbolDecl
	Relations []RelationDecl
}

// Extractor parses source files with tree-sitter and pulls out symbols and
// relations.
type Extractor struct {
	parser *sitter.Parser
}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{parser: sitter.NewParser()}
}

// ExtractSource parses source bytes for one file. Parse failures degrade to
// a symbol-free result so unparseable files are still tracked at file
// granularity.
func (e *Extractor) ExtractSource(ctx context.Context, source []byte, lang Language) (*FileIndex, error) {
	result := &FileIndex{
		Language:  lang,
		LineCount: strings.Count(string(source), "\n") + 1,
	}

	grammar, err := grammarFor(lang)
	if err != nil {
		return result, nil
	}
	e.parser.SetLanguage(grammar)
	tree, err := e.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return result, nil
	}
	root := tree.RootNode()

	var scope []string // enclosing symbol names, innermost last

	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}

		pushed := false
		nodeType := node.Type()

		switch {
		case contains(functionNodeTypes(lang), nodeType):
			if name := nodeName(node, source, lang); name != "" {
				kind := "function"
				container := enclosingClass(scope, result.Symbols)
				if container != "" || nodeType == "method_declaration" {
					kind = "method"
				}
				result.Symbols = append(result.Symbols, SymbolDecl{
					Name:      name,
					Kind:      kind,
					Container: container,
					StartLine: int(node.StartPoint().Row) + 1,
					EndLine:   int(node.EndPoint().Row) + 1,
				})
				scope = append(scope, name)
				pushed = true
			}

		case contains(classNodeTypes(lang), nodeType):
			if name := nodeName(node, source, lang); name != "" {
				result.Symbols = append(result.Symbols, SymbolDecl{
					Name:      name,
					Kind:      "class",
					StartLine: int(node.StartPoint().Row) + 1,
					EndLine:   int(node.EndPoint().Row) + 1,
				})
				for _, base := range baseClasses(node, source, lang) {
					result.Relations = append(result.Relations, RelationDecl{
						SrcName: name,
						DstName: base,
						Kind:    storage.RelationInherits,
						Line:    int(node.StartPoint().Row) + 1,
					})
				}
				scope = append(scope, name)
				pushed = true
			}

		case isCallNode(nodeType, lang):
			if callee := calleeName(node, source, lang); callee != "" {
				result.Relations = append(result.Relations, RelationDecl{
					SrcName: currentScope(scope),
					DstName: callee,
					Kind:    storage.RelationCalls,
					Line:    int(node.StartPoint().Row) + 1,
				})
			}

		case isImportNode(nodeType, lang):
			for _, target := range importTargets(node, source, lang) {
				result.Relations = append(result.Relations, RelationDecl{
					SrcName: currentScope(scope),
					DstName: target,
					Kind:    storage.RelationImports,
					Line:    int(node.StartPoint().Row) + 1,
				})
			}
		}

		for i := 0; i < int(node.ChildCount()); i++ {
			walk(node.Child(i))
		}
		if pushed {
			scope = scope[:len(scope)-1]
		}
	}
	walk(root)

	return result, nil
}

func currentScope(scope []string) string {
	if len(scope) == 0 {
		return ""
	}
	return scope[len(scope)-1]
}

// enclosingClass returns the innermost scope entry that was declared as a
// class, walking the already-collected symbols.
func enclosingClass(scope []string, symbols []SymbolDecl) string {
	for i := len(scope) - 1; i >= 0; i-- {
		for _, s := range symbols {
			if s.Name == scope[i] && s.Kind == "class" {
				return scope[i]
			}
		}
	}
	return ""
}

func nodeName(node *sitter.Node, source []byte, lang Language) string {
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return nodeText(nameNode, source)
	}
	// Go type_declaration wraps the name in a type_spec child.
	if lang == LangGo && node.Type() == "type_declaration" {
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			if child != nil && child.Type() == "type_spec" {
				if nameNode := child.ChildByFieldName("name"); nameNode != nil {
					return nodeText(nameNode, source)
				}
			}
		}
	}
	return ""
}

func nodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

func isCallNode(nodeType string, lang Language) bool {
	switch lang {
	case LangPython:
		return nodeType == "call"
	case LangGo, LangJavaScript, LangTypeScript, LangRust:
		return nodeType == "call_expression"
	default:
		return false
	}
}

// calleeName extracts the called name: bare identifiers directly, attribute
// and member accesses by their final component.
func calleeName(node *sitter.Node, source []byte, lang Language) string {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier":
		return nodeText(fn, source)
	case "attribute", "member_expression", "selector_expression", "field_expression":
		field := "attribute"
		switch fn.Type() {
		case "member_expression":
			field = "property"
		case "selector_expression", "field_expression":
			field = "field"
		}
		if last := fn.ChildByFieldName(field); last != nil {
			return nodeText(last, source)
		}
	case "scoped_identifier": // Rust path calls: module::function()
		if last := fn.ChildByFieldName("name"); last != nil {
			return nodeText(last, source)
		}
	}
	return ""
}

func isImportNode(nodeType string, lang Language) bool {
	switch lang {
	case LangPython:
		return nodeType == "import_statement" || nodeType == "import_from_statement"
	case LangGo:
		return nodeType == "import_spec"
	case LangJavaScript, LangTypeScript:
		return nodeType == "import_statement"
	case LangRust:
		return nodeType == "use_declaration"
	default:
		return false
	}
}

func importTargets(node *sitter.Node, source []byte, lang Language) []string {
	switch lang {
	case LangPython:
		if node.Type() == "import_from_statement" {
			module := ""
			if m := node.ChildByFieldName("module_name"); m != nil {
				module = nodeText(m, source)
			}
			var targets []string
			for i := 0; i < int(node.NamedChildCount()); i++ {
				child := node.NamedChild(i)
				if child.Type() == "dotted_name" && nodeText(child, source) != module {
					name := nodeText(child, source)
					if module != "" {
						name = module + "." + name
					}
					targets = append(targets, name)
				}
			}
			if len(targets) == 0 && module != "" {
				targets = append(targets, module)
			}
			return targets
		}
		var targets []string
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child.Type() == "dotted_name" || child.Type() == "aliased_import" {
				if child.Type() == "aliased_import" {
					if n := child.ChildByFieldName("name"); n != nil {
						child = n
					}
				}
				targets = append(targets, nodeText(child, source))
			}
		}
		return targets

	case LangGo:
		if path := node.ChildByFieldName("path"); path != nil {
			return []string{strings.Trim(nodeText(path, source), `"`)}
		}

	case LangJavaScript, LangTypeScript:
		if src := node.ChildByFieldName("source"); src != nil {
			return []string{strings.Trim(nodeText(src, source), `"'`)}
		}

	case LangRust:
		if arg := node.ChildByFieldName("argument"); arg != nil {
			return []string{nodeText(arg, source)}
		}
	}
	return nil
}

// baseClasses returns superclass names for a class declaration.
func baseClasses(node *sitter.Node, source []byte, lang Language) []string {
	switch lang {
	case LangPython:
		supers := node.ChildByFieldName("superclasses")
		if supers == nil {
			return nil
		}
		var bases []string
		for i := 0; i < int(supers.NamedChildCount()); i++ {
			child := supers.NamedChild(i)
			if child.Type() == "identifier" || child.Type() == "attribute" {
				bases = append(bases, nodeText(child, source))
			}
		}
		return bases

	case LangJavaScript, LangTypeScript:
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			if child != nil && child.Type() == "class_heritage" {
				for j := 0; j < int(child.NamedChildCount()); j++ {
					sub := child.NamedChild(j)
					if sub.Type() == "identifier" {
						return []string{nodeText(sub, source)}
					}
				}
				// TypeScript nests an extends_clause inside class_heritage.
				for j := 0; j < int(child.ChildCount()); j++ {
					sub := child.Child(j)
					if sub != nil && sub.Type() == "extends_clause" {
						for k := 0; k < int(sub.NamedChildCount()); k++ {
							if sub.NamedChild(k).Type() == "identifier" {
								return []string{nodeText(sub.NamedChild(k), source)}
							}
						}
					}
				}
			}
		}
	}
	return nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
