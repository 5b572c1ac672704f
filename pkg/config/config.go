// Package config holds all tunable thresholds and heuristic tables for cleave.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for cleave.
type Config struct {
	Detector DetectorConfig `koanf:"detector"`
	Analyzer AnalyzerConfig `koanf:"analyzer"`
	Split    SplitConfig    `koanf:"split"`
	Risk     RiskConfig     `koanf:"risk"`
	Workflow WorkflowConfig `koanf:"workflow"`

	// Category keyword tables for responsibility classification.
	Categories CategoryConfig `koanf:"categories"`

	Exclude ExcludeConfig `koanf:"exclude"`
	Output  OutputConfig  `koanf:"output"`
}

// DetectorConfig controls oversized-file detection.
type DetectorConfig struct {
	// OversizedLines is the physical line count above which a file is
	// flagged for splitting.
	OversizedLines int `koanf:"oversized_lines"`
}

// AnalyzerConfig controls source analysis and responsibility checks.
type AnalyzerConfig struct {
	// ProjectPrefix is the internal namespace prefix; imports rooted under
	// it are classified as project-local.
	ProjectPrefix string `koanf:"project_prefix"`

	// StdlibModules are well-known standard-library names excluded from the
	// bare-import "local module" heuristic.
	StdlibModules []string `koanf:"stdlib_modules"`

	MaxMethodsPerClass  int     `koanf:"max_methods_per_class"`
	MaxFileComplexity   float64 `koanf:"max_file_complexity"`
	MaxImportCategories int     `koanf:"max_import_categories"`
}

// SplitConfig controls split recommendation generation.
type SplitConfig struct {
	// MinConfidence gates which recommendations the extractor will plan.
	MinConfidence float64 `koanf:"min_confidence"`

	// MinEstimatedLines is the smallest estimated extraction worth proposing.
	MinEstimatedLines int `koanf:"min_estimated_lines"`

	// MaxDependencies caps how many import names a recommendation records.
	MaxDependencies int `koanf:"max_dependencies"`
}

// RiskConfig holds the additive risk-scoring buckets.
type RiskConfig struct {
	ComplexityMedium int `koanf:"complexity_medium"`
	ComplexityHigh   int `koanf:"complexity_high"`

	SizeMedium int `koanf:"size_medium"`
	SizeHigh   int `koanf:"size_high"`

	DependentsMedium int `koanf:"dependents_medium"`
	DependentsHigh   int `koanf:"dependents_high"`

	MaintainabilityLow      float64 `koanf:"maintainability_low"`
	MaintainabilityCritical float64 `koanf:"maintainability_critical"`
}

// WorkflowConfig controls workflow planning and execution.
type WorkflowConfig struct {
	// Planning gate: a file enters a workflow only if it exceeds one of
	// these, independent of per-recommendation confidence.
	GateLines      int     `koanf:"gate_lines"`
	GateComplexity float64 `koanf:"gate_complexity"`
	GateViolations int     `koanf:"gate_violations"`

	BackupDir string `koanf:"backup_dir"`

	// TestCommand is the external test-runner argv; empty means "skip,
	// treated as success".
	TestCommand        []string `koanf:"test_command"`
	TestTimeoutSeconds int      `koanf:"test_timeout_seconds"`

	// VCS enables git integration (status checks, staging created files).
	VCS bool `koanf:"vcs"`

	// MaxDurationSeconds caps per-operation time estimates for reporting.
	MaxDurationSeconds int `koanf:"max_duration_seconds"`
}

// CategoryConfig holds the keyword tables that drive class and import
// classification. Keys are category names; matching is lower-cased
// substring search.
type CategoryConfig struct {
	ClassKeywords  map[string][]string `koanf:"class_keywords"`
	Suffixes       map[string]string   `koanf:"suffixes"`
	ImportKeywords map[string][]string `koanf:"import_keywords"`
}

// ExcludeConfig defines file exclusion patterns for the scanner.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns"`
	Dirs      []string `koanf:"dirs"`
	Gitignore bool     `koanf:"gitignore"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format"` // text, json, markdown
	Color   bool   `koanf:"color"`
	Verbose bool   `koanf:"verbose"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Detector: DetectorConfig{
			OversizedLines: 950,
		},
		Analyzer: AnalyzerConfig{
			ProjectPrefix: "",
			StdlibModules: []string{
				"abc", "argparse", "asyncio", "base64", "collections",
				"contextlib", "copy", "csv", "dataclasses", "datetime",
				"enum", "functools", "glob", "hashlib", "io", "itertools",
				"json", "logging", "math", "os", "pathlib", "pickle", "queue",
				"random", "re", "shutil", "socket", "sqlite3", "string",
				"subprocess", "sys", "tempfile", "threading", "time",
				"typing", "unittest", "urllib", "uuid", "xml",
			},
			MaxMethodsPerClass:  15,
			MaxFileComplexity:   50,
			MaxImportCategories: 3,
		},
		Split: SplitConfig{
			MinConfidence:     0.6,
			MinEstimatedLines: 100,
			MaxDependencies:   5,
		},
		Risk: RiskConfig{
			ComplexityMedium:        50,
			ComplexityHigh:          100,
			SizeMedium:              1500,
			SizeHigh:                2000,
			DependentsMedium:        5,
			DependentsHigh:          10,
			MaintainabilityLow:      40,
			MaintainabilityCritical: 20,
		},
		Workflow: WorkflowConfig{
			GateLines:          1000,
			GateComplexity:     50,
			GateViolations:     2,
			BackupDir:          ".refactoring_backups",
			TestCommand:        nil,
			TestTimeoutSeconds: 300,
			VCS:                false,
			MaxDurationSeconds: 1800,
		},
		Categories: CategoryConfig{
			ClassKeywords: map[string][]string{
				"interface":  {"cli", "interface", "menu", "command", "prompt", "console"},
				"network":    {"client", "connection", "session", "socket", "request", "api", "gateway"},
				"analysis":   {"analyzer", "analysis", "parser", "processor", "detector", "scanner", "extractor"},
				"management": {"manager", "controller", "handler", "coordinator", "orchestrator", "scheduler"},
				"data":       {"model", "record", "schema", "entity", "config", "store", "repository"},
			},
			Suffixes: map[string]string{
				"interface":  "cli",
				"network":    "client",
				"analysis":   "analyzer",
				"management": "manager",
				"data":       "models",
			},
			ImportKeywords: map[string][]string{
				"system":   {"os", "sys", "pathlib", "subprocess", "shutil", "signal"},
				"cli":      {"argparse", "click", "typer", "curses", "rich", "readline"},
				"network":  {"requests", "urllib", "http", "socket", "aiohttp", "websocket"},
				"data":     {"json", "csv", "yaml", "pickle", "xml", "pandas", "numpy"},
				"database": {"sqlite3", "sqlalchemy", "psycopg2", "pymongo", "redis"},
			},
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"test_*.py",
				"*_test.py",
				"conftest.py",
			},
			Dirs: []string{
				".git",
				".refactoring_backups",
				"__pycache__",
				".venv",
				"venv",
				"node_modules",
				"dist",
				"build",
			},
			Gitignore: true,
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
	}
}

// Load loads configuration from a file, layered over defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault tries standard config locations or returns defaults.
func LoadOrDefault() *Config {
	configNames := []string{
		"cleave.toml",
		"cleave.yaml",
		"cleave.yml",
		"cleave.json",
		".cleave.toml",
		".cleave.yaml",
		".cleave.yml",
		".cleave.json",
	}

	for _, name := range configNames {
		if _, err := os.Stat(name); err == nil {
			if cfg, err := Load(name); err == nil {
				return cfg
			}
		}
	}

	return DefaultConfig()
}

// ShouldExclude checks if a path should be excluded from analysis.
func (c *Config) ShouldExclude(path string) bool {
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, string(filepath.Separator)+dir+string(filepath.Separator)) ||
			strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}
