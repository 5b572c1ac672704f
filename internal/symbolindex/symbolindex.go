// Package symbolindex maintains a project-wide map of module names to their
// exported symbols. The refactoring engine rebuilds it once per workflow and
// consults it to re-scope imports after symbols move between modules.
package symbolindex

import (
	"sort"
	"strings"

	"github.com/rowanlane/cleave/pkg/models"
	"github.com/rowanlane/cleave/pkg/parser"
)

// Index maps module names to exported symbols and back.
type Index struct {
	exports map[string]map[string]bool // module -> symbol set
	files   map[string]string          // module -> source path
	homes   map[string][]string        // symbol -> modules defining it
}

// New returns an empty index.
func New() *Index {
	return &Index{
		exports: make(map[string]map[string]bool),
		files:   make(map[string]string),
		homes:   make(map[string][]string),
	}
}

// Build indexes every public class and module-level function in the project.
// Underscore-prefixed names are private by convention and stay unindexed.
func Build(project []*models.FileAnalysis) *Index {
	ix := New()
	for _, fa := range project {
		module := parser.ModuleName(fa.Path)
		for _, class := range fa.Classes {
			ix.Add(module, fa.Path, class.Name)
		}
		for _, fn := range fa.Methods {
			if fn.Class == "" {
				ix.Add(module, fa.Path, fn.Name)
			}
		}
	}
	return ix
}

// Add records one symbol as exported by module. Private names are ignored.
func (ix *Index) Add(module, path, symbol string) {
	if symbol == "" || strings.HasPrefix(symbol, "_") {
		return
	}
	set, ok := ix.exports[module]
	if !ok {
		set = make(map[string]bool)
		ix.exports[module] = set
	}
	if !set[symbol] {
		set[symbol] = true
		ix.homes[symbol] = append(ix.homes[symbol], module)
	}
	if path != "" {
		ix.files[module] = path
	}
}

// Move re-homes a symbol from one module to another, as happens when the
// extractor relocates a class.
func (ix *Index) Move(symbol, fromModule, toModule, toPath string) {
	if set, ok := ix.exports[fromModule]; ok && set[symbol] {
		delete(set, symbol)
		homes := ix.homes[symbol][:0]
		for _, m := range ix.homes[symbol] {
			if m != fromModule {
				homes = append(homes, m)
			}
		}
		ix.homes[symbol] = homes
	}
	ix.Add(toModule, toPath, symbol)
}

// Exports returns the sorted exported symbols of a module.
func (ix *Index) Exports(module string) []string {
	set := ix.exports[module]
	if len(set) == 0 {
		return nil
	}
	symbols := make([]string, 0, len(set))
	for s := range set {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// Defines reports whether module exports symbol.
func (ix *Index) Defines(module, symbol string) bool {
	return ix.exports[module][symbol]
}

// HomeOf returns the module defining symbol. When several modules define
// the same name the lookup is ambiguous and ok is false.
func (ix *Index) HomeOf(symbol string) (module string, ok bool) {
	homes := ix.homes[symbol]
	if len(homes) != 1 {
		return "", false
	}
	return homes[0], true
}

// FileOf returns the source path last recorded for a module.
func (ix *Index) FileOf(module string) (string, bool) {
	path, ok := ix.files[module]
	return path, ok
}
