package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rowanlane/cleave/pkg/config"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o644))
}

func TestScanDirEmpty(t *testing.T) {
	files, err := New(config.DefaultConfig()).ScanDir(t.TempDir())
	require.NoError(t, err)
	if len(files) != 0 {
		t.Errorf("Empty directory must yield no files, got %v", files)
	}
}

func TestScanDirFindsSourceFiles(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "main.py"))
	touch(t, filepath.Join(root, "pkg", "util.py"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, "stub.pyi"))

	files, err := New(config.DefaultConfig()).ScanDir(root)
	require.NoError(t, err)
	if len(files) != 3 {
		t.Errorf("Expected 3 source files, got %v", files)
	}
}

func TestScanDirExcludes(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "main.py"))
	touch(t, filepath.Join(root, "test_main.py"))
	touch(t, filepath.Join(root, "conftest.py"))
	touch(t, filepath.Join(root, "pkg", "util_test.py"))
	touch(t, filepath.Join(root, "__pycache__", "main.py"))
	touch(t, filepath.Join(root, ".venv", "lib", "site.py"))
	touch(t, filepath.Join(root, ".refactoring_backups", "wf_1", "app.py"))

	files, err := New(config.DefaultConfig()).ScanDir(root)
	require.NoError(t, err)
	if len(files) != 1 || filepath.Base(files[0]) != "main.py" {
		t.Errorf("Expected only main.py, got %v", files)
	}
}

func TestScanDirGitignore(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("generated/\n"), 0o644))
	touch(t, filepath.Join(root, "main.py"))
	touch(t, filepath.Join(root, "generated", "schema.py"))

	files, err := New(config.DefaultConfig()).ScanDir(root)
	require.NoError(t, err)
	if len(files) != 1 || filepath.Base(files[0]) != "main.py" {
		t.Errorf("Expected gitignored dir to be skipped, got %v", files)
	}
}
