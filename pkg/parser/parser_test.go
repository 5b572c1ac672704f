package parser

import (
	"testing"
)

const sampleSource = `"""Module docstring."""
import os
from collections import OrderedDict


class Greeter:
    def greet(self, name):
        if name:
            return "hi " + name
        return "hi"


def main():
    Greeter().greet("world")
`

func TestParseAndKinds(t *testing.T) {
	p := New()
	defer p.Close()

	result, err := p.Parse([]byte(sampleSource), "sample.py")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if result.HasSyntaxError() {
		t.Fatal("Expected clean parse")
	}

	root := result.Tree.RootNode()
	if got := len(FindNodesByKind(root, KindClass)); got != 1 {
		t.Errorf("Expected 1 class, got %d", got)
	}
	if got := len(FindNodesByKind(root, KindFunction)); got != 2 {
		t.Errorf("Expected 2 functions, got %d", got)
	}
	if got := len(FindNodesByKind(root, KindImport)); got != 1 {
		t.Errorf("Expected 1 import, got %d", got)
	}
	if got := len(FindNodesByKind(root, KindImportFrom)); got != 1 {
		t.Errorf("Expected 1 from-import, got %d", got)
	}
}

func TestHasSyntaxError(t *testing.T) {
	p := New()
	defer p.Close()

	result, err := p.Parse([]byte("def broken(:\n    pass\n"), "broken.py")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !result.HasSyntaxError() {
		t.Error("Expected syntax error to be reported")
	}
}

func TestNodeLines(t *testing.T) {
	p := New()
	defer p.Close()

	result, _ := p.Parse([]byte(sampleSource), "sample.py")
	classes := FindNodesByKind(result.Tree.RootNode(), KindClass)
	if len(classes) != 1 {
		t.Fatalf("Expected 1 class, got %d", len(classes))
	}
	if got := StartLine(classes[0]); got != 6 {
		t.Errorf("Expected class to start at line 6, got %d", got)
	}
	if got := EndLine(classes[0]); got != 10 {
		t.Errorf("Expected class to end at line 10, got %d", got)
	}
}

func TestIsSourceFile(t *testing.T) {
	cases := map[string]bool{
		"client.py":  true,
		"gui.pyw":    true,
		"stubs.pyi":  true,
		"readme.md":  false,
		"main.go":    false,
		"no_ext":     false,
		"UPPER.PY":   true,
		"script.pyc": false,
	}
	for path, want := range cases {
		if got := IsSourceFile(path); got != want {
			t.Errorf("IsSourceFile(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestModuleName(t *testing.T) {
	if got := ModuleName("pkg/client.py"); got != "client" {
		t.Errorf("Expected client, got %s", got)
	}
	if got := ModuleName("main.pyw"); got != "main" {
		t.Errorf("Expected main, got %s", got)
	}
}
