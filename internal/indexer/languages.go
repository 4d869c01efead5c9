package indexer

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language identifies a supported source language.
type Language string

const (
	LangPython     Language = "python"
	LangGo         Language = "go"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangRust       Language = "rust"
)

var extensionLanguages = map[string]Language{
	".py": LangPython,
	".go": LangGo,
	".js": LangJavaScript,
	".ts": LangTypeScript,
	".rs": LangRust,
}

// LanguageFromExtension maps a file extension to a Language.
func LanguageFromExtension(ext string) (Language, bool) {
	lang, ok := extensionLanguages[ext]
	return lang, ok
}

func grammarFor(lang Language) (*sitter.Language, error) {
	switch lang {
	case LangPython:
		return python.GetLanguage(), nil
	case LangGo:
		return golang.GetLanguage(), nil
	case LangJavaScript:
		return javascript.GetLanguage(), nil
	case LangTypeScript:
		return typescript.GetLanguage(), nil
	case LangRust:
		return rust.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}

// functionNodeTypes lists AST node types declaring functions or methods.
func functionNodeTypes(lang Language) []string {
	switch lang {
	case LangPython:
		return []string{"function_definition"}
	case LangGo:
		return []string{"function_declaration", "method_declaration"}
	case LangJavaScript, LangTypeScript:
		return []string{"function_declaration", "generator_function_declaration"}
	case LangRust:
		return []string{"function_item"}
	default:
		return nil
	}
}

// classNodeTypes lists AST node types declaring classes or named types.
func classNodeTypes(lang Language) []string {
	switch lang {
	case LangPython:
		return []string{"class_definition"}
	case LangGo:
		return []string{"type_declaration"}
	case LangJavaScript, LangTypeScript:
		return []string{"class_declaration"}
	case LangRust:
		return []string{"struct_item", "enum_item", "trait_item"}
	default:
		return nil
	}
}
