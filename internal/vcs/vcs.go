// Package vcs wraps the git operations the refactoring workflow needs:
// clean-tree checks before rewriting files and staging the files it creates.
// Every entry point degrades gracefully when the project is not a git
// repository.
package vcs

import (
	"fmt"
	"path/filepath"

	"github.com/go-git/go-git/v5"
)

// Client wraps a git repository rooted at or above the project directory.
type Client struct {
	repo *git.Repository
	root string
}

// Open locates the enclosing git repository. A project outside any
// repository returns git.ErrRepositoryNotExists; callers treat that as
// "VCS unavailable", not as a failure.
func Open(path string) (*Client, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open worktree: %w", err)
	}

	return &Client{repo: repo, root: wt.Filesystem.Root()}, nil
}

// Root returns the repository worktree root.
func (c *Client) Root() string {
	return c.root
}

// IsClean reports whether the worktree has no uncommitted changes.
func (c *Client) IsClean() (bool, error) {
	wt, err := c.repo.Worktree()
	if err != nil {
		return false, err
	}
	status, err := wt.Status()
	if err != nil {
		return false, err
	}
	return status.IsClean(), nil
}

// Add stages the given paths and returns the equivalent git commands for
// reporting. Paths outside the worktree or failing to stage are skipped;
// staging is best effort and never fails the workflow.
func (c *Client) Add(paths ...string) []string {
	wt, err := c.repo.Worktree()
	if err != nil {
		return nil
	}

	var commands []string
	for _, path := range paths {
		rel, err := filepath.Rel(c.root, path)
		if err != nil || filepath.IsAbs(rel) {
			continue
		}
		rel = filepath.ToSlash(rel)
		if _, err := wt.Add(rel); err != nil {
			continue
		}
		commands = append(commands, "git add "+rel)
	}
	return commands
}
