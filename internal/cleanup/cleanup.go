// Package cleanup removes the sandboxes of finished tasks: worktrees and
// branches whose owning task has reached a terminal status in the state
// store. Everything else is left alone, including the worktrees of failed
// tasks a human may still want to inspect, unless force is set.
package cleanup

import (
	"path/filepath"
	"strings"

	"github.com/forgeworks/forge/internal/logging"
	"github.com/forgeworks/forge/internal/state"
	"github.com/forgeworks/forge/internal/worktree"
)

// Sweeper removes worktrees and branches for terminal tasks.
type Sweeper struct {
	store     *state.Store
	worktrees *worktree.Manager
	repoDir   string
	dir       string
	log       *logging.Logger
}

// Results summarizes one sweep.
type Results struct {
	WorktreesRemoved int
	BranchesDeleted  int
	Skipped          int
	Errors           []string
}

// NewSweeper creates a Sweeper for one repository. dir is the worktree
// directory relative to repoDir.
func NewSweeper(store *state.Store, worktrees *worktree.Manager, repoDir, dir string, log *logging.Logger) *Sweeper {
	return &Sweeper{
		store:     store,
		worktrees: worktrees,
		repoDir:   repoDir,
		dir:       dir,
		log:       log,
	}
}

// Sweep removes every task worktree whose owning task has completed
// successfully, deleting its branch as well. With force set, worktrees of
// failed and paused tasks are also removed.
func (s *Sweeper) Sweep(force bool) (*Results, error) {
	paths, err := s.worktrees.List()
	if err != nil {
		return nil, err
	}

	// git prints worktree paths absolute; the configured repo path may be
	// relative (".").
	repoDir, err := filepath.Abs(s.repoDir)
	if err != nil {
		return nil, err
	}
	prefix := filepath.Join(repoDir, s.dir) + string(filepath.Separator)
	results := &Results{}

	for _, path := range paths {
		if !strings.HasPrefix(path, prefix) {
			continue
		}

		// Worktree layout is {dir}/{branch}, branch is forge/{task id}.
		branch := strings.TrimPrefix(path, prefix)
		taskID := strings.TrimPrefix(branch, "forge/")

		rec := s.store.Get(taskID)
		if rec == nil {
			results.Skipped++
			continue
		}

		removable := rec.Status == state.StatusSuccess || (force && rec.Status.IsTerminal())
		if !removable {
			results.Skipped++
			continue
		}

		s.log.Info("removing worktree", "task_id", taskID, "path", path, "status", string(rec.Status))
		if err := s.worktrees.Remove(path); err != nil {
			results.Errors = append(results.Errors, err.Error())
			continue
		}
		results.WorktreesRemoved++

		if err := s.worktrees.DeleteBranch(branch); err != nil {
			results.Errors = append(results.Errors, err.Error())
			continue
		}
		results.BranchesDeleted++
	}

	return results, nil
}
