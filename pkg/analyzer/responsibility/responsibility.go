// Package responsibility classifies classes and imports into responsibility
// categories and flags files that mix too many of them.
package responsibility

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rowanlane/cleave/pkg/config"
	"github.com/rowanlane/cleave/pkg/models"
)

// classCategoryOrder fixes the tie-break order when a class name matches
// keywords from more than one category. Interface goes last because its
// "cli" keyword is a substring of "client"; a DataClient must bucket as
// network, not interface.
var classCategoryOrder = []models.Category{
	models.CategoryNetwork,
	models.CategoryAnalysis,
	models.CategoryManagement,
	models.CategoryData,
	models.CategoryInterface,
}

// Analyzer detects mixed-responsibility files using configured keyword
// tables and thresholds.
type Analyzer struct {
	analyzer   config.AnalyzerConfig
	categories config.CategoryConfig
}

// New creates a responsibility analyzer.
func New(cfg *config.Config) *Analyzer {
	return &Analyzer{
		analyzer:   cfg.Analyzer,
		categories: cfg.Categories,
	}
}

// ClassifyClass buckets a class by keyword match on its lower-cased name.
// Names matching no table fall into CategoryOther.
func (a *Analyzer) ClassifyClass(name string) models.Category {
	lower := strings.ToLower(name)
	for _, cat := range classCategoryOrder {
		for _, keyword := range a.categories.ClassKeywords[string(cat)] {
			if strings.Contains(lower, keyword) {
				return cat
			}
		}
	}
	return models.CategoryOther
}

// GroupClasses buckets every class in the analysis by category.
func (a *Analyzer) GroupClasses(fa *models.FileAnalysis) map[models.Category][]models.ClassInfo {
	groups := make(map[models.Category][]models.ClassInfo)
	for _, class := range fa.Classes {
		cat := a.ClassifyClass(class.Name)
		groups[cat] = append(groups[cat], class)
	}
	return groups
}

// ClassifyImport buckets an import by its root module segment against the
// keyword tables. Imports matching no table still classify: project-local
// ones as "internal", the rest as "external", so unmatched imports count
// toward the mixed-import-concerns rule instead of dropping out of it.
func (a *Analyzer) ClassifyImport(imp models.ImportInfo) string {
	module := imp.From
	if module == "" {
		module = imp.Module
	}
	root := strings.ToLower(module)
	if idx := strings.Index(root, "."); idx >= 0 {
		root = root[:idx]
	}

	for _, cat := range []string{"system", "cli", "network", "data", "database"} {
		for _, keyword := range a.categories.ImportKeywords[cat] {
			if root == keyword {
				return cat
			}
		}
	}
	if imp.Local {
		return "internal"
	}
	return "external"
}

// ImportCategories returns the sorted set of distinct import categories the
// file touches.
func (a *Analyzer) ImportCategories(fa *models.FileAnalysis) []string {
	seen := make(map[string]bool)
	for _, imp := range fa.Imports {
		seen[a.ClassifyImport(imp)] = true
	}

	cats := make([]string, 0, len(seen))
	for cat := range seen {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	return cats
}

// Violations reports every responsibility rule the file breaks, as
// human-readable messages. An empty slice means the file is clean.
func (a *Analyzer) Violations(fa *models.FileAnalysis) []string {
	var violations []string

	groups := a.GroupClasses(fa)
	var classCats []string
	for _, cat := range classCategoryOrder {
		if len(groups[cat]) > 0 {
			classCats = append(classCats, string(cat))
		}
	}
	if len(classCats) > 1 {
		violations = append(violations, fmt.Sprintf(
			"classes span %d responsibility categories (%s)",
			len(classCats), strings.Join(classCats, ", ")))
	}

	if importCats := a.ImportCategories(fa); len(importCats) > a.analyzer.MaxImportCategories {
		violations = append(violations, fmt.Sprintf(
			"imports span %d categories (%s), max %d",
			len(importCats), strings.Join(importCats, ", "), a.analyzer.MaxImportCategories))
	}

	for _, class := range fa.Classes {
		if len(class.Methods) > a.analyzer.MaxMethodsPerClass {
			violations = append(violations, fmt.Sprintf(
				"class %s has %d methods, max %d",
				class.Name, len(class.Methods), a.analyzer.MaxMethodsPerClass))
		}
	}

	if fa.Complexity > a.analyzer.MaxFileComplexity {
		violations = append(violations, fmt.Sprintf(
			"file complexity %.0f exceeds max %.0f",
			fa.Complexity, a.analyzer.MaxFileComplexity))
	}

	return violations
}
