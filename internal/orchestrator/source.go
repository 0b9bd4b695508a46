package orchestrator

import (
	"context"
	"path/filepath"

	"github.com/forgeworks/forge/internal/errors"
	"github.com/forgeworks/forge/internal/task"
)

// Source supplies tasks to the orchestrator. Implementations exist for
// GitHub issues and for local YAML task files.
type Source interface {
	// Fetch returns all currently open tasks.
	Fetch(ctx context.Context) ([]task.Task, error)

	// FetchOne returns a single task by id, for resuming tasks the store
	// knows about but the current Fetch did not return.
	FetchOne(ctx context.Context, id string) (*task.Task, error)
}

// LocalSource reads tasks from YAML files under a repository's tasks
// directory, so the pipeline works without any tracker.
type LocalSource struct {
	dir string
}

// NewLocalSource creates a LocalSource reading from repoPath/.forge/tasks.
func NewLocalSource(repoPath string) *LocalSource {
	return &LocalSource{dir: filepath.Join(repoPath, ".forge", "tasks")}
}

// Fetch returns all local task files as tasks.
func (s *LocalSource) Fetch(ctx context.Context) ([]task.Task, error) {
	return task.LoadLocal(s.dir)
}

// FetchOne returns the local task with the given id.
func (s *LocalSource) FetchOne(ctx context.Context, id string) (*task.Task, error) {
	tasks, err := task.LoadLocal(s.dir)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i], nil
		}
	}
	return nil, errors.Wrapf(errors.ErrNotFound, "local task %q", id)
}
