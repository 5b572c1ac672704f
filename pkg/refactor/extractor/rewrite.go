package extractor

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/rowanlane/cleave/pkg/models"
	"github.com/rowanlane/cleave/pkg/parser"
)

// neededImports selects which of the file's import statements the new
// module should carry: any statement binding a name that appears textually
// in the extracted ranges. Textual mention over-approximates real use, so
// the new module may import slightly too much but never too little.
func (e *Extractor) neededImports(fa *models.FileAnalysis, src []byte, ranges []models.LineRange) []string {
	lines := strings.Split(string(src), "\n")

	var extracted strings.Builder
	for _, r := range ranges {
		for i := r.Start; i <= r.End && i <= len(lines); i++ {
			extracted.WriteString(lines[i-1])
			extracted.WriteByte('\n')
		}
	}
	text := extracted.String()

	var statements []string
	seen := make(map[string]bool)
	add := func(stmt string) {
		if !seen[stmt] {
			seen[stmt] = true
			statements = append(statements, stmt)
		}
	}

	for _, group := range groupImports(fa.Imports) {
		if !mentionsAny(text, group) {
			continue
		}
		add(renderImport(group))
	}

	sort.Strings(statements)
	return statements
}

// groupImports reassembles the per-binding ImportInfo records into logical
// statements, keyed by source line so "from x import a, b" stays one
// statement.
func groupImports(imports []models.ImportInfo) [][]models.ImportInfo {
	var groups [][]models.ImportInfo
	index := make(map[string]int)

	for _, imp := range imports {
		key := fmt.Sprintf("%d|%s", imp.Line, imp.From)
		if i, ok := index[key]; ok {
			groups[i] = append(groups[i], imp)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, []models.ImportInfo{imp})
	}
	return groups
}

func mentionsAny(text string, group []models.ImportInfo) bool {
	for _, imp := range group {
		name := imp.BoundName()
		if imp.From == "" {
			// "import os.path" binds "os" in the namespace.
			if idx := strings.Index(name, "."); idx >= 0 {
				name = name[:idx]
			}
		}
		if name == "*" || (name != "" && strings.Contains(text, name)) {
			return true
		}
	}
	return false
}

func renderImport(group []models.ImportInfo) string {
	names := make([]string, 0, len(group))
	for _, imp := range group {
		if imp.Alias != "" {
			names = append(names, imp.Module+" as "+imp.Alias)
		} else {
			names = append(names, imp.Module)
		}
	}

	if from := group[0].From; from != "" {
		return "from " + from + " import " + strings.Join(names, ", ")
	}
	return "import " + strings.Join(names, ", ")
}

// buildModule renders the new module: an origin docstring, the carried
// imports, then each extracted range verbatim, separated by the customary
// two blank lines.
func (e *Extractor) buildModule(ex *models.CodeExtraction, sourcePath string, src []byte) []byte {
	lines := strings.Split(string(src), "\n")

	var b strings.Builder
	fmt.Fprintf(&b, "\"\"\"%s: extracted from %s.\"\"\"\n", ex.TargetModule, filepath.Base(sourcePath))

	if len(ex.Imports) > 0 {
		b.WriteByte('\n')
		for _, stmt := range ex.Imports {
			b.WriteString(stmt)
			b.WriteByte('\n')
		}
	}

	for _, r := range ex.Ranges {
		b.WriteString("\n\n")
		body := lines[r.Start-1 : min(r.End, len(lines))]
		for len(body) > 0 && strings.TrimSpace(body[len(body)-1]) == "" {
			body = body[:len(body)-1]
		}
		for _, line := range body {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	return []byte(b.String())
}

// rewriteOriginal removes the extracted ranges from the source and inserts
// a relative re-import of the moved symbols, placed after the last
// top-level import (or after the module docstring when there are none), so
// existing users of the original module keep working.
func (e *Extractor) rewriteOriginal(ex *models.CodeExtraction, sourcePath string, src []byte) ([]byte, error) {
	parsed, err := e.psr.Parse(src, sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source: %w", err)
	}
	insertAfter := importInsertionLine(parsed.Tree.RootNode())

	symbols := append(append([]string{}, ex.Classes...), ex.Functions...)
	sort.Strings(symbols)
	reimport := fmt.Sprintf("from .%s import %s", ex.TargetModule, strings.Join(symbols, ", "))

	covered := func(lineNo int) bool {
		for _, r := range ex.Ranges {
			if lineNo >= r.Start && lineNo <= r.End {
				return true
			}
		}
		return false
	}

	lines := strings.Split(string(src), "\n")
	out := make([]string, 0, len(lines))
	if insertAfter == 0 {
		out = append(out, reimport)
	}
	for i, line := range lines {
		lineNo := i + 1
		if covered(lineNo) {
			continue
		}
		out = append(out, line)
		if lineNo == insertAfter {
			out = append(out, reimport)
		}
	}

	return []byte(strings.Join(collapseBlankRuns(out), "\n")), nil
}

// importInsertionLine finds the 1-based line after which a new import
// belongs: the last top-level import statement, else the module docstring,
// else 0 meaning the very top of the file.
func importInsertionLine(root *sitter.Node) int {
	insertAfter := 0

	for i, n := 0, int(root.NamedChildCount()); i < n; i++ {
		child := root.NamedChild(i)
		switch parser.KindOf(child.Type()) {
		case parser.KindImport, parser.KindImportFrom:
			if end := parser.EndLine(child); end > insertAfter {
				insertAfter = end
			}
		default:
			if i == 0 && child.Type() == "expression_statement" &&
				child.NamedChildCount() > 0 && child.NamedChild(0).Type() == "string" {
				insertAfter = parser.EndLine(child)
			}
		}
	}

	return insertAfter
}

// collapseBlankRuns squeezes the 3+ blank-line gaps left by removed ranges
// down to the customary two.
func collapseBlankRuns(lines []string) []string {
	out := make([]string, 0, len(lines))
	blanks := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			blanks++
			if blanks > 2 {
				continue
			}
		} else {
			blanks = 0
		}
		out = append(out, line)
	}
	return out
}

// ImportFixups computes the import rewrites dependent files need after
// symbols move: any "from original import Moved" line now resolves against
// the new module. Returned as instructions; applying them is a separate,
// sequential step.
func ImportFixups(project []*models.FileAnalysis, originalModule string, ex *models.CodeExtraction) []models.ImportUpdate {
	moved := make(map[string]bool, len(ex.Classes)+len(ex.Functions))
	for _, name := range ex.Classes {
		moved[name] = true
	}
	for _, name := range ex.Functions {
		moved[name] = true
	}

	var updates []models.ImportUpdate
	for _, fa := range project {
		for _, imp := range fa.Imports {
			if imp.From == "" || !moved[imp.Module] {
				continue
			}
			trimmed := strings.TrimLeft(imp.From, ".")
			if trimmed != originalModule && !strings.HasSuffix(trimmed, "."+originalModule) {
				continue
			}
			newFrom := strings.TrimSuffix(imp.From, originalModule) + ex.TargetModule
			updates = append(updates, models.ImportUpdate{
				File:   fa.Path,
				Line:   imp.Line,
				Symbol: imp.Module,
				Old:    fmt.Sprintf("from %s import %s", imp.From, imp.Module),
				New:    fmt.Sprintf("from %s import %s", newFrom, imp.Module),
			})
		}
	}
	return updates
}
