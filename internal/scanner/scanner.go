// Package scanner finds Python source files under a project root.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/rowanlane/cleave/pkg/config"
	"github.com/rowanlane/cleave/pkg/parser"
)

// Scanner walks a directory tree and returns analyzable source files.
type Scanner struct {
	config   *config.Config
	matchers []gitignore.Matcher
}

// New creates a new file scanner.
func New(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// findGitRoot walks up from start looking for a .git directory.
func findGitRoot(start string) string {
	dir := start
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadGitignore reads .gitignore patterns from the enclosing repository,
// when enabled.
func (s *Scanner) loadGitignore(root string) {
	if !s.config.Exclude.Gitignore {
		return
	}
	gitRoot := findGitRoot(root)
	if gitRoot == "" {
		return
	}

	fsys := osfs.New(gitRoot)
	if patterns, err := gitignore.ReadPatterns(fsys, nil); err == nil && len(patterns) > 0 {
		s.matchers = []gitignore.Matcher{gitignore.NewMatcher(patterns)}
	}
}

// isExcluded checks a relative path against the config exclusions and any
// .gitignore patterns. Directories match the exclude list by base name so
// the walk can skip their whole subtree.
func (s *Scanner) isExcluded(path string, isDir bool) bool {
	if isDir {
		base := filepath.Base(path)
		for _, dir := range s.config.Exclude.Dirs {
			if base == dir {
				return true
			}
		}
	} else if s.config.ShouldExclude(path) {
		return true
	}

	if len(s.matchers) == 0 {
		return false
	}
	pathParts := strings.Split(path, string(filepath.Separator))
	for _, m := range s.matchers {
		if m.Match(pathParts, isDir) {
			return true
		}
	}
	return false
}

// ScanDir recursively scans a directory for Python source files. Per-entry
// errors are skipped; the scan itself never aborts on them.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	files := make([]string, 0, 256)

	s.loadGitignore(root)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		relPath, _ := filepath.Rel(root, path)

		if d.IsDir() {
			if relPath != "." && s.isExcluded(relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.isExcluded(relPath, false) {
			return nil
		}
		if parser.IsSourceFile(path) {
			files = append(files, path)
		}

		return nil
	})

	return files, walkErr
}
