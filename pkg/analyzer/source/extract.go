package source

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/rowanlane/cleave/pkg/models"
	"github.com/rowanlane/cleave/pkg/parser"
)

// extractClassesAndMethods walks the module and collects every class
// definition plus every function definition, whether module-level or nested
// in a class body.
func extractClassesAndMethods(root *sitter.Node, result *parser.ParseResult) ([]models.ClassInfo, []models.MethodInfo) {
	var classes []models.ClassInfo
	var methods []models.MethodInfo

	for i, n := 0, int(root.NamedChildCount()); i < n; i++ {
		span := root.NamedChild(i)
		node := unwrapDecorated(span)
		if node == nil {
			continue
		}

		switch node.Type() {
		case "class_definition":
			class, classMethods := extractClass(node, span, result)
			classes = append(classes, class)
			methods = append(methods, classMethods...)
		case "function_definition":
			methods = append(methods, extractFunction(node, span, result, ""))
		}
	}

	return classes, methods
}

// unwrapDecorated returns the definition inside a decorated_definition
// wrapper, or the node itself when it is not decorated.
func unwrapDecorated(node *sitter.Node) *sitter.Node {
	if node != nil && node.Type() == "decorated_definition" {
		if def := node.ChildByFieldName("definition"); def != nil {
			return def
		}
	}
	return node
}

// extractClass builds a ClassInfo from a class_definition node. span is the
// enclosing decorated_definition when the class is decorated, so recorded
// line ranges cover decorators too.
func extractClass(node, span *sitter.Node, result *parser.ParseResult) (models.ClassInfo, []models.MethodInfo) {
	class := models.ClassInfo{
		Name:       parser.NodeText(node.ChildByFieldName("name"), result.Source),
		File:       result.Path,
		StartLine:  parser.StartLine(span),
		EndLine:    parser.EndLine(span),
		Complexity: subtreeComplexity(node),
	}

	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		for i, n := 0, int(supers.NamedChildCount()); i < n; i++ {
			class.Bases = append(class.Bases, parser.NodeText(supers.NamedChild(i), result.Source))
		}
	}

	var methods []models.MethodInfo
	body := node.ChildByFieldName("body")
	if body == nil {
		return class, nil
	}

	class.Docstring = extractDocstring(body, result.Source)

	for i, n := 0, int(body.NamedChildCount()); i < n; i++ {
		span := body.NamedChild(i)
		child := unwrapDecorated(span)
		if child == nil || child.Type() != "function_definition" {
			continue
		}
		m := extractFunction(child, span, result, class.Name)
		class.Methods = append(class.Methods, m.Name)
		methods = append(methods, m)
	}

	return class, methods
}

func extractFunction(node, span *sitter.Node, result *parser.ParseResult, className string) models.MethodInfo {
	m := models.MethodInfo{
		Name:       parser.NodeText(node.ChildByFieldName("name"), result.Source),
		File:       result.Path,
		Class:      className,
		StartLine:  parser.StartLine(span),
		EndLine:    parser.EndLine(span),
		Complexity: subtreeComplexity(node),
		Async:      node.Child(0) != nil && node.Child(0).Type() == "async",
	}

	if params := node.ChildByFieldName("parameters"); params != nil {
		for i, n := 0, int(params.NamedChildCount()); i < n; i++ {
			m.Params = append(m.Params, paramName(params.NamedChild(i), result.Source))
		}
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		m.ReturnType = parser.NodeText(ret, result.Source)
	}
	if body := node.ChildByFieldName("body"); body != nil {
		m.Docstring = extractDocstring(body, result.Source)
	}

	return m
}

// paramName reduces a parameter node to its bare identifier, stripping
// default values, annotations, and splat markers.
func paramName(node *sitter.Node, source []byte) string {
	switch node.Type() {
	case "identifier":
		return parser.NodeText(node, source)
	case "typed_parameter", "typed_default_parameter", "default_parameter",
		"list_splat_pattern", "dictionary_splat_pattern":
		if name := node.ChildByFieldName("name"); name != nil {
			return parser.NodeText(name, source)
		}
		for i, n := 0, int(node.NamedChildCount()); i < n; i++ {
			if child := node.NamedChild(i); child.Type() == "identifier" {
				return parser.NodeText(child, source)
			}
		}
	}
	return parser.NodeText(node, source)
}

// extractDocstring returns the docstring of a class or function body: the
// string literal of the body's first statement, with quotes trimmed.
func extractDocstring(body *sitter.Node, source []byte) string {
	if body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	str := first.NamedChild(0)
	if str.Type() != "string" {
		return ""
	}
	return trimStringQuotes(parser.NodeText(str, source))
}

func trimStringQuotes(s string) string {
	for _, prefix := range []string{"r", "R", "b", "B", "u", "U", "f", "F"} {
		s = strings.TrimPrefix(s, prefix)
	}
	for _, quote := range []string{`"""`, "'''", `"`, "'"} {
		if strings.HasPrefix(s, quote) && strings.HasSuffix(s, quote) && len(s) >= 2*len(quote) {
			return strings.TrimSpace(s[len(quote) : len(s)-len(quote)])
		}
	}
	return s
}

// extractImports collects every import binding in the module, including
// those nested inside functions or conditional blocks.
func (a *Analyzer) extractImports(root *sitter.Node, result *parser.ParseResult) []models.ImportInfo {
	var imports []models.ImportInfo

	parser.Walk(root, func(n *sitter.Node, nodeType string) bool {
		switch parser.KindOf(nodeType) {
		case parser.KindImport:
			imports = append(imports, a.plainImports(n, result)...)
		case parser.KindImportFrom:
			imports = append(imports, a.fromImports(n, result)...)
		}
		return true
	})

	return imports
}

// plainImports handles "import a.b, c as d" statements.
func (a *Analyzer) plainImports(node *sitter.Node, result *parser.ParseResult) []models.ImportInfo {
	var imports []models.ImportInfo
	line := parser.StartLine(node)

	for i, n := 0, int(node.NamedChildCount()); i < n; i++ {
		child := node.NamedChild(i)
		imp := models.ImportInfo{Line: line}

		switch child.Type() {
		case "dotted_name":
			imp.Module = parser.NodeText(child, result.Source)
		case "aliased_import":
			imp.Module = parser.NodeText(child.ChildByFieldName("name"), result.Source)
			imp.Alias = parser.NodeText(child.ChildByFieldName("alias"), result.Source)
		default:
			continue
		}

		imp.Local = a.isLocalModule(imp.Module)
		imports = append(imports, imp)
	}

	return imports
}

// fromImports handles "from x import a, b as c" statements, producing one
// ImportInfo per imported name.
func (a *Analyzer) fromImports(node *sitter.Node, result *parser.ParseResult) []models.ImportInfo {
	var imports []models.ImportInfo
	line := parser.StartLine(node)

	moduleNode := node.ChildByFieldName("module_name")
	module := parser.NodeText(moduleNode, result.Source)
	relative := moduleNode != nil && moduleNode.Type() == "relative_import"
	local := relative || a.isLocalModule(module)

	for i, n := 0, int(node.NamedChildCount()); i < n; i++ {
		child := node.NamedChild(i)
		if child == moduleNode {
			continue
		}
		imp := models.ImportInfo{From: module, Line: line, Local: local}

		switch child.Type() {
		case "dotted_name":
			imp.Module = parser.NodeText(child, result.Source)
		case "aliased_import":
			imp.Module = parser.NodeText(child.ChildByFieldName("name"), result.Source)
			imp.Alias = parser.NodeText(child.ChildByFieldName("alias"), result.Source)
		case "wildcard_import":
			imp.Module = "*"
		default:
			continue
		}

		imports = append(imports, imp)
	}

	return imports
}

// isLocalModule decides whether a module name resolves inside the analyzed
// project. Relative imports are always local; otherwise a configured project
// prefix wins, and bare single-segment names not in the stdlib table are
// assumed to be sibling modules.
func (a *Analyzer) isLocalModule(module string) bool {
	if module == "" {
		return false
	}
	if strings.HasPrefix(module, ".") {
		return true
	}
	if a.cfg.ProjectPrefix != "" &&
		(module == a.cfg.ProjectPrefix || strings.HasPrefix(module, a.cfg.ProjectPrefix+".")) {
		return true
	}
	root := module
	if idx := strings.Index(module, "."); idx >= 0 {
		root = module[:idx]
	}
	return root == module && !a.stdlib[root]
}
