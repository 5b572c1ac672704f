// Package models defines the data types shared across cleave's analyzers
// and refactoring engine.
package models

import "time"

// Category classifies a class or import into a broad responsibility bucket.
type Category string

const (
	CategoryInterface  Category = "interface"
	CategoryNetwork    Category = "network"
	CategoryAnalysis   Category = "analysis"
	CategoryManagement Category = "management"
	CategoryData       Category = "data"
	CategoryOther      Category = "other"
)

// FileAnalysis is an immutable snapshot of one source file's structure and
// metrics. It is never mutated after creation; re-analysis supersedes it.
type FileAnalysis struct {
	Path            string    `json:"path"`
	TotalLines      int       `json:"total_lines"`
	PhysicalLines   int       `json:"physical_lines"`
	Complexity      float64   `json:"complexity"`
	Maintainability float64   `json:"maintainability"`
	ContentHash     string    `json:"content_hash"`
	Size            int64     `json:"size"`
	ModTime         time.Time `json:"mod_time"`

	Classes []ClassInfo  `json:"classes"`
	Methods []MethodInfo `json:"methods"`
	Imports []ImportInfo `json:"imports"`
}

// ClassInfo describes one class definition.
type ClassInfo struct {
	Name       string   `json:"name"`
	File       string   `json:"file"`
	StartLine  int      `json:"start_line"`
	EndLine    int      `json:"end_line"`
	Bases      []string `json:"bases,omitempty"`
	Docstring  string   `json:"docstring,omitempty"`
	Complexity float64  `json:"complexity"`
	Methods    []string `json:"methods"`
}

// LineCount returns the source span of the class in lines.
func (c *ClassInfo) LineCount() int {
	if c.EndLine < c.StartLine {
		return 0
	}
	return c.EndLine - c.StartLine + 1
}

// MethodInfo describes one function or method definition. Class is the name
// of the enclosing class, or empty for module-level functions; it is a weak
// reference, not ownership.
type MethodInfo struct {
	Name       string   `json:"name"`
	File       string   `json:"file"`
	Class      string   `json:"class,omitempty"`
	StartLine  int      `json:"start_line"`
	EndLine    int      `json:"end_line"`
	Params     []string `json:"params"`
	Complexity float64  `json:"complexity"`
	Docstring  string   `json:"docstring,omitempty"`
	Async      bool     `json:"async,omitempty"`
	ReturnType string   `json:"return_type,omitempty"`
}

// ImportInfo describes one imported module binding.
type ImportInfo struct {
	Module string `json:"module"`
	Alias  string `json:"alias,omitempty"`
	From   string `json:"from,omitempty"`
	Line   int    `json:"line"`

	// Local marks imports that resolve inside the analyzed project.
	Local bool `json:"local"`
}

// BoundName returns the name the import binds in the module namespace.
func (i *ImportInfo) BoundName() string {
	if i.Alias != "" {
		return i.Alias
	}
	return i.Module
}
