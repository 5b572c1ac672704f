package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Detector.OversizedLines != 950 {
		t.Errorf("Expected 950, got %d", cfg.Detector.OversizedLines)
	}
	if cfg.Split.MinConfidence != 0.6 {
		t.Errorf("Expected 0.6, got %f", cfg.Split.MinConfidence)
	}
	if cfg.Workflow.GateLines != 1000 {
		t.Errorf("Expected 1000, got %d", cfg.Workflow.GateLines)
	}
	if len(cfg.Categories.ClassKeywords) != 5 {
		t.Errorf("Expected 5 class keyword tables, got %d", len(cfg.Categories.ClassKeywords))
	}
	for cat := range cfg.Categories.ClassKeywords {
		if cfg.Categories.Suffixes[cat] == "" {
			t.Errorf("Category %s has no target-module suffix", cat)
		}
	}
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cleave.toml")
	content := `
[detector]
oversized_lines = 500

[split]
min_confidence = 0.7

[workflow]
vcs = true
test_command = ["pytest", "-q"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	if cfg.Detector.OversizedLines != 500 {
		t.Errorf("Expected override 500, got %d", cfg.Detector.OversizedLines)
	}
	if cfg.Split.MinConfidence != 0.7 {
		t.Errorf("Expected override 0.7, got %f", cfg.Split.MinConfidence)
	}
	if !cfg.Workflow.VCS {
		t.Error("Expected vcs enabled")
	}
	if len(cfg.Workflow.TestCommand) != 2 || cfg.Workflow.TestCommand[0] != "pytest" {
		t.Errorf("Unexpected test command: %v", cfg.Workflow.TestCommand)
	}
	// Untouched settings keep their defaults.
	if cfg.Workflow.GateLines != 1000 {
		t.Errorf("Defaults must survive partial configs, got %d", cfg.Workflow.GateLines)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cleave.yaml")
	require.NoError(t, os.WriteFile(path, []byte("detector:\n  oversized_lines: 300\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	if cfg.Detector.OversizedLines != 300 {
		t.Errorf("Expected 300, got %d", cfg.Detector.OversizedLines)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("Loading a missing file must fail")
	}
}

func TestShouldExclude(t *testing.T) {
	cfg := DefaultConfig()

	cases := map[string]bool{
		"src/app.py":              false,
		"test_app.py":             true,
		"src/app_test.py":         true,
		"conftest.py":             true,
		"__pycache__/app.py":      true,
		".venv/lib/site.py":       true,
		"src/__pycache__/m.py":    true,
		"src/important.py":        false,
	}
	for path, want := range cases {
		if got := cfg.ShouldExclude(filepath.FromSlash(path)); got != want {
			t.Errorf("ShouldExclude(%q) = %v, want %v", path, got, want)
		}
	}
}
