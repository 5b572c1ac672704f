// Package split turns responsibility groupings into concrete split
// recommendations: which symbols to move, where, and with what confidence.
package split

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rowanlane/cleave/pkg/analyzer/responsibility"
	"github.com/rowanlane/cleave/pkg/config"
	"github.com/rowanlane/cleave/pkg/models"
	"github.com/rowanlane/cleave/pkg/parser"
)

// Per-class extraction cost model: a fixed overhead for the class statement,
// docstring, and spacing, plus a flat allowance per method.
const (
	classOverheadLines = 20
	perMethodLines     = 10
)

// Engine produces SplitRecommendations for analyzed files.
type Engine struct {
	cfg        config.SplitConfig
	categories config.CategoryConfig
	resp       *responsibility.Analyzer
}

// New creates a split recommendation engine.
func New(cfg *config.Config) *Engine {
	return &Engine{
		cfg:        cfg.Split,
		categories: cfg.Categories,
		resp:       responsibility.New(cfg),
	}
}

// Recommend groups the file's classes by responsibility category and
// proposes one extraction per category holding at least two classes.
// Groups whose estimated extraction is below the configured minimum are
// dropped. Recommendations come back ordered by confidence descending.
func (e *Engine) Recommend(fa *models.FileAnalysis) []models.SplitRecommendation {
	groups := e.resp.GroupClasses(fa)

	var recs []models.SplitRecommendation
	for cat, classes := range groups {
		if cat == models.CategoryOther || len(classes) < 2 {
			continue
		}

		estimated := 0
		span := 0
		names := make([]string, 0, len(classes))
		for _, class := range classes {
			estimated += perMethodLines*len(class.Methods) + classOverheadLines
			span += class.LineCount()
			names = append(names, class.Name)
		}
		if estimated <= e.cfg.MinEstimatedLines {
			continue
		}

		confidence := 0.6
		if len(classes) > 2 {
			confidence = 0.8
		}

		recs = append(recs, models.SplitRecommendation{
			TargetModule:   e.targetModule(fa.Path, cat),
			Classes:        names,
			EstimatedLines: estimated,
			SpanLines:      span,
			Dependencies:   e.dependencies(fa),
			Reason: fmt.Sprintf("%d %s classes share a responsibility",
				len(classes), cat),
			Confidence: confidence,
		})
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Confidence != recs[j].Confidence {
			return recs[i].Confidence > recs[j].Confidence
		}
		return recs[i].TargetModule < recs[j].TargetModule
	})

	return recs
}

// targetModule derives the new module name from the source file stem and the
// category's configured suffix. A stem that already ends in the suffix gets
// "_split" instead, so "client.py" never proposes "client_client.py".
func (e *Engine) targetModule(path string, cat models.Category) string {
	stem := parser.ModuleName(path)
	suffix := e.categories.Suffixes[string(cat)]
	if suffix == "" {
		suffix = string(cat)
	}
	if strings.HasSuffix(stem, "_"+suffix) || stem == suffix {
		return stem + "_split"
	}
	return stem + "_" + suffix
}

// dependencies lists the first few distinct import bindings of the source
// file, as a hint of what the new module will need. Repeated bindings count
// once; the cap keeps reports readable.
func (e *Engine) dependencies(fa *models.FileAnalysis) []string {
	max := e.cfg.MaxDependencies
	deps := make([]string, 0, max)
	seen := make(map[string]bool, max)
	for _, imp := range fa.Imports {
		if len(deps) >= max {
			break
		}
		name := imp.BoundName()
		if name == "" || name == "*" || seen[name] {
			continue
		}
		seen[name] = true
		deps = append(deps, name)
	}
	return deps
}

// Flat cost model for the public API surface: roughly what each public
// symbol contributes in signature, docstring, and spacing.
const (
	publicClassSurfaceLines    = 10
	publicFunctionSurfaceLines = 5
)

// Surface computes descriptive API-surface metrics for a file: an estimate
// of the lines its public symbols account for and a count of private
// helpers. A private helper starts with a single underscore; dunder names
// are neither public surface nor helpers.
func (e *Engine) Surface(fa *models.FileAnalysis) models.SurfaceMetrics {
	var m models.SurfaceMetrics

	for _, class := range fa.Classes {
		switch {
		case isPrivateName(class.Name):
			m.PrivateHelpers++
		case !strings.HasPrefix(class.Name, "_"):
			m.PublicSurfaceLines += publicClassSurfaceLines
		}
	}
	for _, fn := range fa.Methods {
		if fn.Class != "" {
			continue
		}
		switch {
		case isPrivateName(fn.Name):
			m.PrivateHelpers++
		case !strings.HasPrefix(fn.Name, "_"):
			m.PublicSurfaceLines += publicFunctionSurfaceLines
		}
	}

	return m
}

func isPrivateName(name string) bool {
	return strings.HasPrefix(name, "_") && !strings.HasPrefix(name, "__")
}

// Impact lists which other analyzed files import the target file's module.
func (e *Engine) Impact(fa *models.FileAnalysis, project []*models.FileAnalysis) models.ImpactAnalysis {
	module := parser.ModuleName(fa.Path)
	impact := models.ImpactAnalysis{Module: module}

	for _, other := range project {
		if other.Path == fa.Path {
			continue
		}
		for _, imp := range other.Imports {
			if importRefersTo(imp, module) {
				impact.DependentFiles = append(impact.DependentFiles, other.Path)
				break
			}
		}
	}
	sort.Strings(impact.DependentFiles)

	return impact
}

func importRefersTo(imp models.ImportInfo, module string) bool {
	if imp.From != "" {
		trimmed := strings.TrimLeft(imp.From, ".")
		return trimmed == module || strings.HasSuffix(trimmed, "."+module)
	}
	return imp.Module == module || strings.HasSuffix(imp.Module, "."+module)
}

// Report assembles the full per-file recommendation record.
func (e *Engine) Report(fa *models.FileAnalysis, project []*models.FileAnalysis) *models.RefactoringRecommendation {
	return &models.RefactoringRecommendation{
		Analysis:   fa,
		Violations: e.resp.Violations(fa),
		Splits:     e.Recommend(fa),
		Surface:    e.Surface(fa),
		Impact:     e.Impact(fa, project),
	}
}

// TargetPath resolves a recommendation's module name to a sibling file path.
func TargetPath(sourcePath, targetModule string) string {
	return filepath.Join(filepath.Dir(sourcePath), targetModule+".py")
}
