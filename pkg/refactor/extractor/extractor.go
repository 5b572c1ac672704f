// Package extractor turns split recommendations into executable extraction
// plans and performs the file surgery: writing the new module and rewriting
// the original, staged and swapped so readers never see a half-written file.
package extractor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rowanlane/cleave/pkg/analyzer/source"
	"github.com/rowanlane/cleave/pkg/analyzer/split"
	"github.com/rowanlane/cleave/pkg/config"
	"github.com/rowanlane/cleave/pkg/models"
	"github.com/rowanlane/cleave/pkg/parser"
)

var (
	// ErrLowConfidence rejects recommendations below the configured floor.
	ErrLowConfidence = errors.New("recommendation confidence below minimum")

	// ErrTargetExists means the proposed module path is already taken.
	ErrTargetExists = errors.New("target file already exists")

	// ErrSourceChanged means the file was modified after it was analyzed.
	ErrSourceChanged = errors.New("source file changed since analysis")
)

// Extractor plans and executes code extractions.
type Extractor struct {
	cfg config.SplitConfig
	psr *parser.Parser
}

// New creates an extractor.
func New(cfg config.SplitConfig) *Extractor {
	return &Extractor{cfg: cfg, psr: parser.New()}
}

// Close releases parser resources.
func (e *Extractor) Close() {
	e.psr.Close()
}

// Plan resolves a recommendation against the analyzed file into an
// executable extraction: exact line ranges for every named symbol plus the
// import statements the new module will need. The file is re-read and its
// hash checked, so a stale analysis is rejected rather than acted on.
func (e *Extractor) Plan(fa *models.FileAnalysis, rec models.SplitRecommendation) (*models.CodeExtraction, error) {
	if rec.Confidence < e.cfg.MinConfidence {
		return nil, fmt.Errorf("%w: %.2f < %.2f", ErrLowConfidence, rec.Confidence, e.cfg.MinConfidence)
	}

	src, err := os.ReadFile(fa.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source: %w", err)
	}
	if source.HashContent(src) != fa.ContentHash {
		return nil, fmt.Errorf("%w: %s", ErrSourceChanged, fa.Path)
	}

	ex := &models.CodeExtraction{
		TargetPath:     split.TargetPath(fa.Path, rec.TargetModule),
		TargetModule:   rec.TargetModule,
		EstimatedLines: rec.EstimatedLines,
	}

	for _, name := range rec.Classes {
		class, ok := findClass(fa, name)
		if !ok {
			return nil, fmt.Errorf("class %s not found in %s", name, fa.Path)
		}
		ex.Classes = append(ex.Classes, name)
		ex.Ranges = append(ex.Ranges, models.LineRange{Start: class.StartLine, End: class.EndLine})
	}
	for _, name := range rec.Functions {
		fn, ok := findFunction(fa, name)
		if !ok {
			return nil, fmt.Errorf("function %s not found in %s", name, fa.Path)
		}
		ex.Functions = append(ex.Functions, name)
		ex.Ranges = append(ex.Ranges, models.LineRange{Start: fn.StartLine, End: fn.EndLine})
	}

	sort.Slice(ex.Ranges, func(i, j int) bool { return ex.Ranges[i].Start < ex.Ranges[j].Start })
	for i := 1; i < len(ex.Ranges); i++ {
		if ex.Ranges[i].Start <= ex.Ranges[i-1].End {
			return nil, fmt.Errorf("overlapping symbol ranges in %s", fa.Path)
		}
	}

	ex.Imports = e.neededImports(fa, src, ex.Ranges)

	return ex, nil
}

func findClass(fa *models.FileAnalysis, name string) (models.ClassInfo, bool) {
	for _, class := range fa.Classes {
		if class.Name == name {
			return class, true
		}
	}
	return models.ClassInfo{}, false
}

func findFunction(fa *models.FileAnalysis, name string) (models.MethodInfo, bool) {
	for _, fn := range fa.Methods {
		if fn.Class == "" && fn.Name == name {
			return fn, true
		}
	}
	return models.MethodInfo{}, false
}

// Execute performs the extraction. Both output files are generated and
// syntax-checked first, then written into a staging directory beside the
// source and swapped into place, so a crash mid-write leaves the original
// untouched or fully replaced, never truncated. Dry runs stop after
// validation and report what would be written.
func (e *Extractor) Execute(ex *models.CodeExtraction, sourcePath string, dryRun bool) (*models.SplitResult, error) {
	result := &models.SplitResult{
		MovedClasses:   ex.Classes,
		MovedFunctions: ex.Functions,
		DryRun:         dryRun,
	}

	if _, err := os.Stat(ex.TargetPath); err == nil {
		return result, fmt.Errorf("%w: %s", ErrTargetExists, ex.TargetPath)
	}

	src, err := os.ReadFile(sourcePath)
	if err != nil {
		return result, fmt.Errorf("failed to read source: %w", err)
	}

	newContent := e.buildModule(ex, sourcePath, src)
	rewritten, err := e.rewriteOriginal(ex, sourcePath, src)
	if err != nil {
		return result, err
	}

	for _, out := range []struct {
		path    string
		content []byte
	}{{ex.TargetPath, newContent}, {sourcePath, rewritten}} {
		parsed, err := e.psr.Parse(out.content, out.path)
		if err != nil || parsed.HasSyntaxError() {
			return result, fmt.Errorf("generated content for %s has syntax errors", out.path)
		}
	}

	result.NewFiles = []string{ex.TargetPath}
	if dryRun {
		result.Success = true
		return result, nil
	}

	if err := e.swap(sourcePath, ex.TargetPath, rewritten, newContent); err != nil {
		return result, err
	}

	result.Success = true
	return result, nil
}

// swap stages both files in a temp directory on the same filesystem, then
// renames them into place: the new module first, the rewritten original
// second. If the second rename fails the new module is removed again, so
// the tree is left in its pre-extraction state.
func (e *Extractor) swap(sourcePath, targetPath string, rewritten, newContent []byte) error {
	dir := filepath.Dir(sourcePath)
	stage, err := os.MkdirTemp(dir, ".cleave-stage-")
	if err != nil {
		return fmt.Errorf("failed to create staging dir: %w", err)
	}
	defer os.RemoveAll(stage)

	stagedNew := filepath.Join(stage, filepath.Base(targetPath))
	stagedOrig := filepath.Join(stage, filepath.Base(sourcePath))
	if err := os.WriteFile(stagedNew, newContent, 0o644); err != nil {
		return fmt.Errorf("failed to stage new module: %w", err)
	}
	if err := os.WriteFile(stagedOrig, rewritten, 0o644); err != nil {
		return fmt.Errorf("failed to stage rewritten source: %w", err)
	}

	if err := os.Rename(stagedNew, targetPath); err != nil {
		return fmt.Errorf("failed to place new module: %w", err)
	}
	if err := os.Rename(stagedOrig, sourcePath); err != nil {
		os.Remove(targetPath)
		return fmt.Errorf("failed to replace source: %w", err)
	}

	return nil
}
