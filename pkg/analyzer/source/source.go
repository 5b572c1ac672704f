// Package source analyzes a single Python file into a structural model:
// file metrics plus class, method, and import inventories.
package source

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rowanlane/cleave/pkg/config"
	"github.com/rowanlane/cleave/pkg/models"
	"github.com/rowanlane/cleave/pkg/parser"
)

// ErrUnparsable marks files the analyzer could not parse. Callers treat it
// as "skip file" rather than a batch failure.
var ErrUnparsable = errors.New("source is not parsable")

// Analyzer turns source files into FileAnalysis snapshots.
type Analyzer struct {
	parser *parser.Parser
	cfg    config.AnalyzerConfig
	stdlib map[string]bool
}

// New creates a new source analyzer.
func New(cfg config.AnalyzerConfig) *Analyzer {
	stdlib := make(map[string]bool, len(cfg.StdlibModules))
	for _, m := range cfg.StdlibModules {
		stdlib[m] = true
	}
	return &Analyzer{
		parser: parser.New(),
		cfg:    cfg,
		stdlib: stdlib,
	}
}

// Close releases parser resources.
func (a *Analyzer) Close() {
	a.parser.Close()
}

// AnalyzeFile parses a file and returns its structural snapshot. A file
// that cannot be read or parsed yields ErrUnparsable; no partial analysis
// is ever returned. The result is a pure function of the file contents at
// call time.
func (a *Analyzer) AnalyzeFile(path string) (*models.FileAnalysis, error) {
	return a.AnalyzeFileWith(a.parser, path)
}

// AnalyzeFileWith is AnalyzeFile with a caller-supplied parser, for worker
// pools that keep one parser per goroutine. The analyzer's own state is
// read-only and safe to share.
func (a *Analyzer) AnalyzeFileWith(psr *parser.Parser, path string) (*models.FileAnalysis, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}

	result, err := psr.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}
	if result.HasSyntaxError() {
		return nil, fmt.Errorf("%w: %s has syntax errors", ErrUnparsable, path)
	}

	return a.analyze(result, info.Size(), info.ModTime()), nil
}

// AnalyzeParsed builds the snapshot from an already-parsed result, using a
// shared accumulator so whole-file and sub-tree complexity agree.
func (a *Analyzer) AnalyzeParsed(result *parser.ParseResult) (*models.FileAnalysis, error) {
	if result.HasSyntaxError() {
		return nil, fmt.Errorf("%w: %s has syntax errors", ErrUnparsable, result.Path)
	}
	var size int64 = int64(len(result.Source))
	var modTime time.Time
	if info, err := os.Stat(result.Path); err == nil {
		size = info.Size()
		modTime = info.ModTime()
	}
	return a.analyze(result, size, modTime), nil
}

func (a *Analyzer) analyze(result *parser.ParseResult, size int64, modTime time.Time) *models.FileAnalysis {
	root := result.Tree.RootNode()

	physical := parser.CountPhysicalLines(result.Source)
	complexity := subtreeComplexity(root)

	fa := &models.FileAnalysis{
		Path:            result.Path,
		TotalLines:      parser.TotalLines(result.Source),
		PhysicalLines:   physical,
		Complexity:      complexity,
		Maintainability: maintainabilityIndex(complexity, physical),
		ContentHash:     HashContent(result.Source),
		Size:            size,
		ModTime:         modTime,
	}

	fa.Classes, fa.Methods = extractClassesAndMethods(root, result)
	fa.Imports = a.extractImports(root, result)

	return fa
}

// maintainabilityIndex derives a 0..171 scalar from complexity and size;
// higher means easier to maintain.
func maintainabilityIndex(complexity float64, physicalLines int) float64 {
	mi := 171 - 5.2*complexity - 0.23*float64(physicalLines)
	return math.Max(0, mi)
}

// HashContent returns the content hash used to detect files changing
// between analysis and extraction.
func HashContent(source []byte) string {
	sum := xxhash.Sum64(source)
	var buf [8]byte
	for i := range buf {
		buf[i] = byte(sum >> (8 * (7 - i)))
	}
	return hex.EncodeToString(buf[:])
}
