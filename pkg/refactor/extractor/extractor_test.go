package extractor

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rowanlane/cleave/pkg/analyzer/source"
	"github.com/rowanlane/cleave/pkg/config"
	"github.com/rowanlane/cleave/pkg/models"
	"github.com/rowanlane/cleave/pkg/parser"
)

const appSource = `"""App module."""
import json
import os
from collections import OrderedDict


class ApiClient:
    def get(self, url):
        return json.loads(url)

    def post(self, url, data):
        if data:
            return json.dumps(data)
        return None


class WebClient:
    def fetch(self, path):
        return os.path.join("/", path)


class LogAnalyzer:
    def scan(self, lines):
        return [l for l in lines if l]
`

func setup(t *testing.T) (*models.FileAnalysis, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.py")
	require.NoError(t, os.WriteFile(path, []byte(appSource), 0o644))

	a := source.New(config.DefaultConfig().Analyzer)
	defer a.Close()
	fa, err := a.AnalyzeFile(path)
	require.NoError(t, err)
	return fa, path
}

func clientRecommendation() models.SplitRecommendation {
	return models.SplitRecommendation{
		TargetModule: "app_client",
		Classes:      []string{"ApiClient", "WebClient"},
		Confidence:   0.6,
	}
}

func TestPlanConfidenceGate(t *testing.T) {
	fa, _ := setup(t)
	ext := New(config.DefaultConfig().Split)
	defer ext.Close()

	rec := clientRecommendation()
	rec.Confidence = 0.5
	_, err := ext.Plan(fa, rec)
	if !errors.Is(err, ErrLowConfidence) {
		t.Errorf("Expected ErrLowConfidence, got %v", err)
	}
}

func TestPlanRanges(t *testing.T) {
	fa, _ := setup(t)
	ext := New(config.DefaultConfig().Split)
	defer ext.Close()

	plan, err := ext.Plan(fa, clientRecommendation())
	require.NoError(t, err)

	if len(plan.Ranges) != 2 {
		t.Fatalf("Expected 2 ranges, got %d", len(plan.Ranges))
	}
	for i := 1; i < len(plan.Ranges); i++ {
		if plan.Ranges[i].Start <= plan.Ranges[i-1].End {
			t.Error("Ranges must be sorted and non-overlapping")
		}
	}
	if filepath.Base(plan.TargetPath) != "app_client.py" {
		t.Errorf("Expected sibling app_client.py, got %s", plan.TargetPath)
	}

	// ApiClient uses json, WebClient uses os; neither touches OrderedDict.
	joined := strings.Join(plan.Imports, "\n")
	if !strings.Contains(joined, "import json") || !strings.Contains(joined, "import os") {
		t.Errorf("Expected json and os imports, got %v", plan.Imports)
	}
	if strings.Contains(joined, "OrderedDict") {
		t.Errorf("Unused import carried over: %v", plan.Imports)
	}
}

func TestPlanStaleAnalysis(t *testing.T) {
	fa, path := setup(t)
	require.NoError(t, os.WriteFile(path, []byte(appSource+"\nx = 1\n"), 0o644))

	ext := New(config.DefaultConfig().Split)
	defer ext.Close()

	_, err := ext.Plan(fa, clientRecommendation())
	if !errors.Is(err, ErrSourceChanged) {
		t.Errorf("Expected ErrSourceChanged, got %v", err)
	}
}

func TestExecuteDryRun(t *testing.T) {
	fa, path := setup(t)
	ext := New(config.DefaultConfig().Split)
	defer ext.Close()

	plan, err := ext.Plan(fa, clientRecommendation())
	require.NoError(t, err)

	result, err := ext.Execute(plan, path, true)
	require.NoError(t, err)
	if !result.Success || !result.DryRun {
		t.Errorf("Expected successful dry run, got %+v", result)
	}

	if _, err := os.Stat(plan.TargetPath); !os.IsNotExist(err) {
		t.Error("Dry run must not create files")
	}
	after, _ := os.ReadFile(path)
	if string(after) != appSource {
		t.Error("Dry run must not modify the source")
	}
}

func TestExecuteSplit(t *testing.T) {
	fa, path := setup(t)
	ext := New(config.DefaultConfig().Split)
	defer ext.Close()

	plan, err := ext.Plan(fa, clientRecommendation())
	require.NoError(t, err)

	result, err := ext.Execute(plan, path, false)
	require.NoError(t, err)
	require.True(t, result.Success)

	newContent, err := os.ReadFile(plan.TargetPath)
	require.NoError(t, err)
	rewritten, err := os.ReadFile(path)
	require.NoError(t, err)

	for _, moved := range []string{"class ApiClient", "class WebClient"} {
		if !strings.Contains(string(newContent), moved) {
			t.Errorf("New module missing %q", moved)
		}
		if strings.Contains(string(rewritten), moved) {
			t.Errorf("Original still contains %q", moved)
		}
	}

	if !strings.Contains(string(rewritten), "from .app_client import ApiClient, WebClient") {
		t.Errorf("Original missing re-import, got:\n%s", rewritten)
	}
	if !strings.Contains(string(rewritten), "class LogAnalyzer") {
		t.Error("Unrelated class must stay in the original")
	}

	p := parser.New()
	defer p.Close()
	for _, out := range [][]byte{newContent, rewritten} {
		parsed, err := p.Parse(out, "check.py")
		require.NoError(t, err)
		if parsed.HasSyntaxError() {
			t.Errorf("Generated file has syntax errors:\n%s", out)
		}
	}
}

// Total line coverage is preserved: every line of the original ends up in
// exactly one of the two output files, modulo the header and re-import.
func TestSplitPreservesClassBodies(t *testing.T) {
	fa, path := setup(t)
	ext := New(config.DefaultConfig().Split)
	defer ext.Close()

	plan, err := ext.Plan(fa, clientRecommendation())
	require.NoError(t, err)
	_, err = ext.Execute(plan, path, false)
	require.NoError(t, err)

	newContent, _ := os.ReadFile(plan.TargetPath)
	for _, line := range []string{
		"    def get(self, url):",
		"        if data:",
		"    def fetch(self, path):",
	} {
		if !strings.Contains(string(newContent), line+"\n") {
			t.Errorf("Extracted body lost line %q", line)
		}
	}
}

func TestExecuteRefusesExistingTarget(t *testing.T) {
	fa, path := setup(t)
	ext := New(config.DefaultConfig().Split)
	defer ext.Close()

	plan, err := ext.Plan(fa, clientRecommendation())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(plan.TargetPath, []byte("taken = True\n"), 0o644))

	_, err = ext.Execute(plan, path, false)
	if !errors.Is(err, ErrTargetExists) {
		t.Errorf("Expected ErrTargetExists, got %v", err)
	}
}

func TestImportFixups(t *testing.T) {
	plan := &models.CodeExtraction{
		TargetModule: "app_client",
		Classes:      []string{"ApiClient"},
	}
	project := []*models.FileAnalysis{
		{
			Path: "/proj/uses.py",
			Imports: []models.ImportInfo{
				{Module: "ApiClient", From: "app", Line: 3},
				{Module: "LogAnalyzer", From: "app", Line: 4},
			},
		},
		{
			Path: "/proj/rel.py",
			Imports: []models.ImportInfo{
				{Module: "ApiClient", From: ".app", Line: 1},
			},
		},
	}

	fixups := ImportFixups(project, "app", plan)
	if len(fixups) != 2 {
		t.Fatalf("Expected 2 fixups, got %v", fixups)
	}
	if fixups[0].New != "from app_client import ApiClient" {
		t.Errorf("Unexpected rewrite: %s", fixups[0].New)
	}
	if fixups[1].New != "from .app_client import ApiClient" {
		t.Errorf("Relative import must stay relative: %s", fixups[1].New)
	}
}
