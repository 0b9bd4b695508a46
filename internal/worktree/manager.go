// Package worktree manages the per-task git sandboxes: each task gets an
// isolated worktree on its own branch, created off the latest origin base,
// so concurrent tasks never touch each other's files.
package worktree

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/forgeworks/forge/internal/errors"
)

// Manager creates and tears down task worktrees for a single repository.
type Manager struct {
	repoDir     string
	worktreeDir string
	executor    CommandExecutor
}

// NewManager creates a Manager rooted at repoDir, placing worktrees under
// worktreeDir (relative to repoDir).
func NewManager(repoDir, worktreeDir string) *Manager {
	return &Manager{
		repoDir:     repoDir,
		worktreeDir: worktreeDir,
		executor:    NewCLICommandExecutor(),
	}
}

// NewManagerWithExecutor creates a Manager with a custom executor.
// This is primarily useful for testing.
func NewManagerWithExecutor(repoDir, worktreeDir string, executor CommandExecutor) *Manager {
	return &Manager{
		repoDir:     repoDir,
		worktreeDir: worktreeDir,
		executor:    executor,
	}
}

// Path returns the filesystem path the worktree for branch lives at.
func (m *Manager) Path(branch string) string {
	return filepath.Join(m.repoDir, m.worktreeDir, branch)
}

// Create ensures a worktree exists for branch, based off origin/baseBranch.
// Idempotent: an existing worktree directory is returned as-is, and a
// branch left over from a previous attempt is reattached rather than
// recreated, so crashed runs resume where they stopped.
func (m *Manager) Create(branch, baseBranch string) (string, error) {
	path := m.Path(branch)

	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", errors.NewGitError("failed to create worktree parent directory", err).
			WithWorktree(path)
	}

	// Fetch failures are non-fatal; origin/base may simply be stale.
	_, _ = m.executor.Run(m.repoDir, "git", "fetch", "origin", baseBranch)

	output, err := m.executor.Run(m.repoDir, "git", "worktree", "add", "-b", branch, path, "origin/"+baseBranch)
	if err != nil {
		if strings.Contains(string(output), "already exists") {
			output2, err2 := m.executor.Run(m.repoDir, "git", "worktree", "add", path, branch)
			if err2 != nil {
				return "", errors.NewGitError("failed to attach worktree to existing branch", err2).
					WithBranch(branch).
					WithWorktree(path).
					WithGitOutput(string(output2))
			}
			return path, nil
		}
		return "", errors.NewGitError("failed to create worktree", err).
			WithBranch(branch).
			WithWorktree(path).
			WithGitOutput(string(output))
	}

	return path, nil
}

// Remove removes the worktree at path, falling back to manual cleanup and
// a prune when git refuses.
func (m *Manager) Remove(path string) error {
	output, err := m.executor.Run(m.repoDir, "git", "worktree", "remove", "--force", path)
	if err != nil {
		_ = os.RemoveAll(path)
		_, _ = m.executor.Run(m.repoDir, "git", "worktree", "prune")

		return errors.NewGitError("failed to remove worktree cleanly", err).
			WithWorktree(path).
			WithGitOutput(string(output))
	}
	return nil
}

// List returns paths of all worktrees in the repository.
func (m *Manager) List() ([]string, error) {
	output, err := m.executor.Run(m.repoDir, "git", "worktree", "list", "--porcelain")
	if err != nil {
		return nil, errors.NewGitError("failed to list worktrees", err).
			WithGitOutput(string(output))
	}

	var worktrees []string
	for _, line := range strings.Split(string(output), "\n") {
		if rest, ok := strings.CutPrefix(line, "worktree "); ok {
			worktrees = append(worktrees, rest)
		}
	}
	return worktrees, nil
}

// CommitCount returns the number of commits on branch beyond
// origin/baseBranch. Zero means the implementation stage produced nothing.
func (m *Manager) CommitCount(baseBranch, branch string) (int, error) {
	output, err := m.executor.Run(m.repoDir, "git", "rev-list", "--count",
		fmt.Sprintf("origin/%s..%s", baseBranch, branch))
	if err != nil {
		return 0, errors.NewGitError("failed to count commits", err).
			WithBranch(branch).
			WithGitOutput(string(output))
	}

	count, err := strconv.Atoi(strings.TrimSpace(string(output)))
	if err != nil {
		return 0, errors.NewGitError("failed to parse commit count", err).
			WithBranch(branch)
	}
	return count, nil
}

// Rebase fetches origin/baseBranch and rebases the worktree onto it. On
// failure the rebase is aborted so the worktree is never left mid-rebase;
// conflict failures carry ErrRebaseConflict so callers can distinguish
// them from other git failures. Conflicts are never auto-resolved; the
// branch stays at its pre-rebase state for a human to reconcile.
func (m *Manager) Rebase(worktreePath, baseBranch string) error {
	output, err := m.executor.Run(worktreePath, "git", "fetch", "origin", baseBranch)
	if err != nil {
		return errors.NewGitError("failed to fetch origin/"+baseBranch, err).
			WithWorktree(worktreePath).
			WithGitOutput(string(output))
	}

	output, err = m.executor.Run(worktreePath, "git", "rebase", "origin/"+baseBranch)
	if err != nil {
		outputStr := string(output)
		_, _ = m.executor.Run(worktreePath, "git", "rebase", "--abort")

		if strings.Contains(outputStr, "CONFLICT") || strings.Contains(outputStr, "could not apply") {
			return errors.NewGitError("rebase conflicts detected", errors.ErrRebaseConflict).
				WithWorktree(worktreePath).
				WithBranch(baseBranch).
				WithGitOutput(outputStr)
		}
		return errors.NewGitError("failed to rebase", err).
			WithWorktree(worktreePath).
			WithBranch(baseBranch).
			WithGitOutput(outputStr)
	}

	return nil
}

// Diff returns the worktree's changes against origin/baseBranch since
// divergence (three-dot).
func (m *Manager) Diff(worktreePath, baseBranch string) (string, error) {
	output, err := m.executor.Run(worktreePath, "git", "diff",
		fmt.Sprintf("origin/%s...HEAD", baseBranch))
	if err != nil {
		return "", errors.NewGitError("failed to diff against origin/"+baseBranch, err).
			WithWorktree(worktreePath).
			WithGitOutput(string(output))
	}
	return string(output), nil
}

// Push pushes the worktree's branch to origin.
func (m *Manager) Push(worktreePath string) error {
	output, err := m.executor.Run(worktreePath, "git", "push", "-u", "origin", "HEAD")
	if err != nil {
		return errors.NewGitError("failed to push", err).
			WithWorktree(worktreePath).
			WithGitOutput(string(output))
	}
	return nil
}

// HasUncommittedChanges reports whether the worktree has staged or
// unstaged changes.
func (m *Manager) HasUncommittedChanges(worktreePath string) (bool, error) {
	output, err := m.executor.Run(worktreePath, "git", "status", "--porcelain")
	if err != nil {
		return false, errors.NewGitError("failed to check status", err).
			WithWorktree(worktreePath).
			WithGitOutput(string(output))
	}
	return len(strings.TrimSpace(string(output))) > 0, nil
}

// DeleteBranch force-deletes a branch by name.
func (m *Manager) DeleteBranch(branch string) error {
	output, err := m.executor.Run(m.repoDir, "git", "branch", "-D", branch)
	if err != nil {
		if strings.Contains(string(output), "not found") {
			return errors.NewGitError("branch not found", errors.ErrBranchNotFound).
				WithBranch(branch).
				WithGitOutput(string(output))
		}
		return errors.NewGitError("failed to delete branch", err).
			WithBranch(branch).
			WithGitOutput(string(output))
	}
	return nil
}

// TruncateDiff caps a diff at maxLen bytes for inclusion in a prompt.
func TruncateDiff(diff string, maxLen int) string {
	if len(diff) <= maxLen {
		return diff
	}
	return diff[:maxLen]
}
