// Package parser wraps tree-sitter for parsing Python source files.
package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// NodeKind is a tagged classification of the syntax nodes the refactoring
// engine cares about. Everything else is KindOther.
type NodeKind int

const (
	KindOther NodeKind = iota
	KindClass
	KindFunction
	KindImport
	KindImportFrom
)

// KindOf maps a tree-sitter node type to a NodeKind.
func KindOf(nodeType string) NodeKind {
	switch nodeType {
	case "class_definition":
		return KindClass
	case "function_definition":
		return KindFunction
	case "import_statement":
		return KindImport
	case "import_from_statement":
		return KindImportFrom
	default:
		return KindOther
	}
}

// Parser wraps a tree-sitter parser configured for Python.
type Parser struct {
	parser *sitter.Parser
}

// ParseResult contains the parsed tree and the source it was parsed from.
type ParseResult struct {
	Tree   *sitter.Tree
	Source []byte
	Path   string
}

// New creates a new parser instance.
func New() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &Parser{parser: p}
}

// ParseFile reads and parses a source file.
func (p *Parser) ParseFile(path string) (*ParseResult, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.Parse(source, path)
}

// Parse parses source code. The returned tree may contain error nodes;
// callers that need well-formed input should check HasSyntaxError.
func (p *Parser) Parse(source []byte, path string) (*ParseResult, error) {
	tree, err := p.parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}
	return &ParseResult{Tree: tree, Source: source, Path: path}, nil
}

// Close releases parser resources.
func (p *Parser) Close() {
	p.parser.Close()
}

// HasSyntaxError reports whether the parse produced any error nodes.
func (r *ParseResult) HasSyntaxError() bool {
	return r.Tree.RootNode().HasError()
}

// IsSourceFile reports whether a path looks like a Python source file.
func IsSourceFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py", ".pyw", ".pyi":
		return true
	default:
		return false
	}
}

// ModuleName derives a module name from a file path ("pkg/client.py" -> "client").
func ModuleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// TypedNodeVisitor visits nodes with the node type pre-fetched, avoiding
// repeated CGO calls for type lookups.
type TypedNodeVisitor func(node *sitter.Node, nodeType string) bool

// Walk traverses the tree depth-first. Returning false from the visitor
// stops descent into that node's children.
func Walk(node *sitter.Node, visitor TypedNodeVisitor) {
	if node == nil {
		return
	}
	if !visitor(node, node.Type()) {
		return
	}
	for i, n := 0, int(node.ChildCount()); i < n; i++ {
		Walk(node.Child(i), visitor)
	}
}

// FindNodesByKind returns all nodes of the given kind under root.
func FindNodesByKind(root *sitter.Node, kind NodeKind) []*sitter.Node {
	var results []*sitter.Node
	Walk(root, func(n *sitter.Node, nodeType string) bool {
		if KindOf(nodeType) == kind {
			results = append(results, n)
		}
		return true
	})
	return results
}

// NodeText extracts the source text for a node. Returns empty string if the
// node is nil or its byte offsets are out of bounds.
func NodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if start > end || end > uint32(len(source)) {
		return ""
	}
	return string(source[start:end])
}

// StartLine returns the 1-based first line of a node.
func StartLine(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

// EndLine returns the 1-based last line of a node.
func EndLine(node *sitter.Node) int {
	return int(node.EndPoint().Row) + 1
}
