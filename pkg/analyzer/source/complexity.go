package source

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/rowanlane/cleave/pkg/parser"
)

// decisionTypes are node types that each add one decision point: branch
// statements, loops, exception handlers, and context-manager entries.
var decisionTypes = map[string]bool{
	"if_statement":           true,
	"elif_clause":            true,
	"conditional_expression": true,
	"for_statement":          true,
	"while_statement":        true,
	"except_clause":          true,
	"with_statement":         true,
	"case_clause":            true,
}

// subtreeComplexity computes cyclomatic complexity for any syntax subtree:
// 1 (base) plus one increment per branching construct. The same
// accumulator serves whole files, classes, and single methods, so the
// numbers are directly comparable.
func subtreeComplexity(node *sitter.Node) float64 {
	return 1 + float64(countDecisions(node))
}

func countDecisions(node *sitter.Node) int {
	count := 0

	parser.Walk(node, func(n *sitter.Node, nodeType string) bool {
		switch {
		case decisionTypes[nodeType]:
			count++
		case nodeType == "boolean_operator":
			// Binary in the grammar; each node is arity 2, adding 1.
			count++
		case nodeType == "comparison_operator":
			// A chained comparison a < b < c contributes one increment
			// per operator in the chain.
			if ops := int(n.NamedChildCount()) - 1; ops > 0 {
				count += ops
			}
		}
		return true
	})

	return count
}
