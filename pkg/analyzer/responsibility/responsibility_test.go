package responsibility

import (
	"strings"
	"testing"

	"github.com/rowanlane/cleave/pkg/config"
	"github.com/rowanlane/cleave/pkg/models"
)

func TestClassifyClass(t *testing.T) {
	a := New(config.DefaultConfig())

	cases := map[string]models.Category{
		"ApiClient":        models.CategoryNetwork,
		"HttpConnection":   models.CategoryNetwork,
		"SourceAnalyzer":   models.CategoryAnalysis,
		"FileScanner":      models.CategoryAnalysis,
		"TaskManager":      models.CategoryManagement,
		"EventHandler":     models.CategoryManagement,
		"UserRecord":       models.CategoryData,
		"ConfigStore":      models.CategoryData,
		"CliMenu":          models.CategoryInterface,
		"PromptLoop":       models.CategoryInterface,
		"Widget":           models.CategoryOther,
		"Thing":            models.CategoryOther,
	}
	for name, want := range cases {
		if got := a.ClassifyClass(name); got != want {
			t.Errorf("ClassifyClass(%q) = %s, want %s", name, got, want)
		}
	}
}

func TestClassifyImport(t *testing.T) {
	a := New(config.DefaultConfig())

	cases := []struct {
		imp  models.ImportInfo
		want string
	}{
		{models.ImportInfo{Module: "os"}, "system"},
		{models.ImportInfo{Module: "os.path"}, "system"},
		{models.ImportInfo{Module: "requests"}, "network"},
		{models.ImportInfo{Module: "OrderedDict", From: "collections"}, "external"},
		{models.ImportInfo{Module: "loads", From: "json"}, "data"},
		{models.ImportInfo{Module: "sqlite3"}, "database"},
		{models.ImportInfo{Module: "argparse"}, "cli"},
		{models.ImportInfo{Module: "boto3"}, "external"},
		{models.ImportInfo{Module: "mypackage", Local: true}, "internal"},
		{models.ImportInfo{Module: "helpers", From: ".utils", Local: true}, "internal"},
	}
	for _, tc := range cases {
		if got := a.ClassifyImport(tc.imp); got != tc.want {
			t.Errorf("ClassifyImport(%+v) = %q, want %q", tc.imp, got, tc.want)
		}
	}
}

func classNamed(name string, methods int) models.ClassInfo {
	c := models.ClassInfo{Name: name}
	for i := 0; i < methods; i++ {
		c.Methods = append(c.Methods, "m")
	}
	return c
}

func TestViolationsClean(t *testing.T) {
	a := New(config.DefaultConfig())
	fa := &models.FileAnalysis{
		Classes:    []models.ClassInfo{classNamed("ApiClient", 3)},
		Complexity: 10,
	}
	if v := a.Violations(fa); len(v) != 0 {
		t.Errorf("Expected no violations, got %v", v)
	}
}

func TestViolationsMixedCategories(t *testing.T) {
	a := New(config.DefaultConfig())
	fa := &models.FileAnalysis{
		Classes: []models.ClassInfo{
			classNamed("ApiClient", 2),
			classNamed("SourceAnalyzer", 2),
		},
	}
	violations := a.Violations(fa)
	if len(violations) != 1 {
		t.Fatalf("Expected 1 violation, got %v", violations)
	}
	if !strings.Contains(violations[0], "responsibility categories") {
		t.Errorf("Unexpected violation message: %s", violations[0])
	}
}

func TestViolationsTooManyMethods(t *testing.T) {
	cfg := config.DefaultConfig()
	a := New(cfg)
	fa := &models.FileAnalysis{
		Classes: []models.ClassInfo{classNamed("ApiClient", cfg.Analyzer.MaxMethodsPerClass+1)},
	}
	violations := a.Violations(fa)
	if len(violations) != 1 || !strings.Contains(violations[0], "methods") {
		t.Errorf("Expected method-count violation, got %v", violations)
	}
}

func TestViolationsImportCategories(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Analyzer.MaxImportCategories = 2
	a := New(cfg)

	fa := &models.FileAnalysis{
		Imports: []models.ImportInfo{
			{Module: "os"},
			{Module: "requests"},
			{Module: "json"},
		},
	}
	violations := a.Violations(fa)
	if len(violations) != 1 || !strings.Contains(violations[0], "imports span") {
		t.Errorf("Expected import-category violation, got %v", violations)
	}
}

func TestViolationsComplexity(t *testing.T) {
	a := New(config.DefaultConfig())
	fa := &models.FileAnalysis{Complexity: 51}
	violations := a.Violations(fa)
	if len(violations) != 1 || !strings.Contains(violations[0], "complexity") {
		t.Errorf("Expected complexity violation, got %v", violations)
	}
}

func TestImportCategoriesSorted(t *testing.T) {
	a := New(config.DefaultConfig())
	fa := &models.FileAnalysis{
		Imports: []models.ImportInfo{
			{Module: "sqlite3"},
			{Module: "os"},
			{Module: "os.path"},
		},
	}
	cats := a.ImportCategories(fa)
	if len(cats) != 2 || cats[0] != "database" || cats[1] != "system" {
		t.Errorf("Expected [database system], got %v", cats)
	}
}
