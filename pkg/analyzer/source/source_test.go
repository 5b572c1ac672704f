package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rowanlane/cleave/pkg/config"
	"github.com/rowanlane/cleave/pkg/models"
)

const fixtureSource = `"""Fixture module."""
import os
import numpy as np
from collections import OrderedDict
from .helpers import format_row


class ReportBuilder:
    """Builds reports."""

    def __init__(self, title):
        self.title = title

    def build(self, rows):
        out = []
        for row in rows:
            if row and len(row) > 0:
                out.append(format_row(row))
        return out


@dataclass
class Record:
    pass


async def fetch(url, timeout=5):
    """Fetch a URL."""
    return await get(url)


def _helper():
    pass
`

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.py")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAnalyzeFile(t *testing.T) {
	a := New(config.DefaultConfig().Analyzer)
	defer a.Close()

	fa, err := a.AnalyzeFile(writeFixture(t, fixtureSource))
	require.NoError(t, err)

	if len(fa.Classes) != 2 {
		t.Fatalf("Expected 2 classes, got %d", len(fa.Classes))
	}
	builder := fa.Classes[0]
	if builder.Name != "ReportBuilder" {
		t.Errorf("Expected ReportBuilder, got %s", builder.Name)
	}
	if builder.Docstring != "Builds reports." {
		t.Errorf("Expected class docstring, got %q", builder.Docstring)
	}
	if len(builder.Methods) != 2 {
		t.Errorf("Expected 2 methods, got %v", builder.Methods)
	}

	record := fa.Classes[1]
	if record.Name != "Record" {
		t.Errorf("Expected Record, got %s", record.Name)
	}
	// Decorated class span starts at the decorator.
	if record.StartLine != 22 {
		t.Errorf("Expected Record span to start at 22, got %d", record.StartLine)
	}

	var fetch, helper *models.MethodInfo
	for i := range fa.Methods {
		switch fa.Methods[i].Name {
		case "fetch":
			fetch = &fa.Methods[i]
		case "_helper":
			helper = &fa.Methods[i]
		}
	}
	require.NotNil(t, fetch)
	require.NotNil(t, helper)
	if !fetch.Async {
		t.Error("Expected fetch to be async")
	}
	if fetch.Class != "" {
		t.Errorf("Expected fetch to be module-level, got class %q", fetch.Class)
	}
	if len(fetch.Params) != 2 || fetch.Params[0] != "url" || fetch.Params[1] != "timeout" {
		t.Errorf("Unexpected params: %v", fetch.Params)
	}
	if fetch.Docstring != "Fetch a URL." {
		t.Errorf("Expected function docstring, got %q", fetch.Docstring)
	}
}

func TestAnalyzeFileImports(t *testing.T) {
	a := New(config.DefaultConfig().Analyzer)
	defer a.Close()

	fa, err := a.AnalyzeFile(writeFixture(t, fixtureSource))
	require.NoError(t, err)

	byName := make(map[string]models.ImportInfo)
	for _, imp := range fa.Imports {
		byName[imp.BoundName()] = imp
	}

	if imp, ok := byName["os"]; !ok || imp.Local {
		t.Errorf("Expected stdlib os import, got %+v", imp)
	}
	np, ok := byName["np"]
	if !ok || np.Module != "numpy" || np.Alias != "np" {
		t.Errorf("Expected aliased numpy import, got %+v", np)
	}
	od, ok := byName["OrderedDict"]
	if !ok || od.From != "collections" || od.Local {
		t.Errorf("Expected from-import of OrderedDict, got %+v", od)
	}
	fr, ok := byName["format_row"]
	if !ok || fr.From != ".helpers" || !fr.Local {
		t.Errorf("Expected local relative import, got %+v", fr)
	}
}

func TestComplexityFloor(t *testing.T) {
	a := New(config.DefaultConfig().Analyzer)
	defer a.Close()

	fa, err := a.AnalyzeFile(writeFixture(t, "x = 1\n"))
	require.NoError(t, err)
	if fa.Complexity < 1 {
		t.Errorf("Complexity must be at least 1, got %f", fa.Complexity)
	}
}

func TestComplexityCounting(t *testing.T) {
	a := New(config.DefaultConfig().Analyzer)
	defer a.Close()

	// 1 base + if + elif + for + boolean_operator + chained comparison (2 ops).
	src := `def f(a, b, c):
    if a and b:
        pass
    elif a < b < c:
        pass
    for i in c:
        pass
`
	fa, err := a.AnalyzeFile(writeFixture(t, src))
	require.NoError(t, err)
	if fa.Complexity != 7 {
		t.Errorf("Expected complexity 7, got %f", fa.Complexity)
	}
}

func TestMaintainabilityBounds(t *testing.T) {
	cases := []struct {
		complexity float64
		physical   int
	}{
		{1, 0},
		{50, 1000},
		{500, 100000},
	}
	for _, tc := range cases {
		mi := maintainabilityIndex(tc.complexity, tc.physical)
		if mi < 0 || mi > 171 {
			t.Errorf("maintainabilityIndex(%f, %d) = %f out of range", tc.complexity, tc.physical, mi)
		}
	}
	if maintainabilityIndex(1, 0) != 171-5.2 {
		t.Errorf("Expected trivial file MI of %f, got %f", 171-5.2, maintainabilityIndex(1, 0))
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	a := New(config.DefaultConfig().Analyzer)
	defer a.Close()
	path := writeFixture(t, fixtureSource)

	first, err := a.AnalyzeFile(path)
	require.NoError(t, err)
	second, err := a.AnalyzeFile(path)
	require.NoError(t, err)

	if first.ContentHash != second.ContentHash {
		t.Error("Content hash changed across identical analyses")
	}
	if first.Complexity != second.Complexity || first.PhysicalLines != second.PhysicalLines {
		t.Error("Metrics changed across identical analyses")
	}
	if len(first.Classes) != len(second.Classes) {
		t.Error("Class inventory changed across identical analyses")
	}
}

func TestAnalyzeUnparsable(t *testing.T) {
	a := New(config.DefaultConfig().Analyzer)
	defer a.Close()

	_, err := a.AnalyzeFile(writeFixture(t, "def broken(:\n"))
	if !errors.Is(err, ErrUnparsable) {
		t.Errorf("Expected ErrUnparsable, got %v", err)
	}

	_, err = a.AnalyzeFile(filepath.Join(t.TempDir(), "missing.py"))
	if !errors.Is(err, ErrUnparsable) {
		t.Errorf("Expected ErrUnparsable for missing file, got %v", err)
	}
}
