// Package parser wraps tree-sitter grammars for the languages scry analyzes.
package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language represents a supported programming language.
type Language string

const (
	LangGo         Language = "go"
	LangRust       Language = "rust"
	LangPython     Language = "python"
	LangTypeScript Language = "typescript"
	LangJavaScript Language = "javascript"
	LangTSX        Language = "tsx"
	LangJava       Language = "java"
	LangCSharp     Language = "csharp"
	LangPHP        Language = "php"
	LangUnknown    Language = "unknown"
)

// Parser wraps a tree-sitter parser. It is not safe for concurrent use;
// create one per goroutine.
type Parser struct {
	parser *sitter.Parser
}

// Result is a parsed syntax tree together with its source.
type Result struct {
	Tree     *sitter.Tree
	Language Language
	Source   []byte
}

// New creates a new parser instance.
func New() *Parser {
	return &Parser{parser: sitter.NewParser()}
}

// Close releases parser resources.
func (p *Parser) Close() {
	p.parser.Close()
}

// Parse parses source with the grammar for lang.
func (p *Parser) Parse(ctx context.Context, source []byte, lang Language) (*Result, error) {
	tsLang, err := grammar(lang)
	if err != nil {
		return nil, err
	}

	p.parser.SetLanguage(tsLang)
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse %s source: %w", lang, err)
	}

	return &Result{Tree: tree, Language: lang, Source: source}, nil
}

// Close releases the syntax tree.
func (r *Result) Close() {
	if r.Tree != nil {
		r.Tree.Close()
	}
}

func grammar(lang Language) (*sitter.Language, error) {
	switch lang {
	case LangGo:
		return golang.GetLanguage(), nil
	case LangRust:
		return rust.GetLanguage(), nil
	case LangPython:
		return python.GetLanguage(), nil
	case LangTypeScript:
		return typescript.GetLanguage(), nil
	case LangTSX:
		return tsx.GetLanguage(), nil
	case LangJavaScript:
		return javascript.GetLanguage(), nil
	case LangJava:
		return java.GetLanguage(), nil
	case LangCSharp:
		return csharp.GetLanguage(), nil
	case LangPHP:
		return php.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}

// DetectLanguage determines the language from a file path.
func DetectLanguage(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return LangGo
	case ".rs":
		return LangRust
	case ".py":
		return LangPython
	case ".ts":
		return LangTypeScript
	case ".tsx", ".jsx":
		return LangTSX
	case ".js":
		return LangJavaScript
	case ".java":
		return LangJava
	case ".cs":
		return LangCSharp
	case ".php":
		return LangPHP
	default:
		return LangUnknown
	}
}

// Walk traverses the tree depth-first. Returning false from visit skips
// the node's children.
func Walk(node *sitter.Node, visit func(node *sitter.Node, nodeType string) bool) {
	if node == nil {
		return
	}
	if !visit(node, node.Type()) {
		return
	}
	for i := range int(node.ChildCount()) {
		Walk(node.Child(i), visit)
	}
}

// NodeText extracts the source text for a node.
// Returns empty string if node is nil or byte offsets are out of bounds.
func NodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if start > end || end > uint32(len(source)) {
		return ""
	}
	return string(source[start:end])
}

// Function is a function-like definition found in a syntax tree.
type Function struct {
	Name      string
	StartLine int
	Text      string
}

var functionNodeTypes = map[Language][]string{
	LangGo:         {"function_declaration", "method_declaration", "func_literal"},
	LangRust:       {"function_item", "closure_expression"},
	LangPython:     {"function_definition", "lambda"},
	LangTypeScript: {"function_declaration", "function", "function_expression", "arrow_function", "method_definition"},
	LangJavaScript: {"function_declaration", "function", "function_expression", "arrow_function", "method_definition"},
	LangTSX:        {"function_declaration", "function", "function_expression", "arrow_function", "method_definition"},
	LangJava:       {"method_declaration", "constructor_declaration", "lambda_expression"},
	LangCSharp:     {"method_declaration", "constructor_declaration", "local_function_statement", "lambda_expression"},
	LangPHP:        {"function_definition", "method_declaration", "anonymous_function_creation_expression", "arrow_function"},
}

// Functions returns every function-like node in document order, nested
// functions included.
func Functions(r *Result) []Function {
	types := make(map[string]bool)
	for _, t := range functionNodeTypes[r.Language] {
		types[t] = true
	}

	var fns []Function
	Walk(r.Tree.RootNode(), func(node *sitter.Node, nodeType string) bool {
		if types[nodeType] {
			fns = append(fns, Function{
				Name:      functionName(node, r.Source),
				StartLine: int(node.StartPoint().Row) + 1,
				Text:      NodeText(node, r.Source),
			})
		}
		return true
	})
	return fns
}

// functionName reads the name field, falling back to the binding an
// anonymous function is assigned to.
func functionName(node *sitter.Node, source []byte) string {
	if name := node.ChildByFieldName("name"); name != nil {
		return NodeText(name, source)
	}
	if parent := node.Parent(); parent != nil {
		switch parent.Type() {
		case "variable_declarator", "assignment_expression", "pair", "public_field_definition":
			for _, field := range []string{"name", "left", "key"} {
				if n := parent.ChildByFieldName(field); n != nil {
					return NodeText(n, source)
				}
			}
		}
	}
	return "<anonymous>"
}
