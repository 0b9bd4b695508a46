// Package pipeline drives a single task through its lifecycle: triage,
// escalation, implementation, integration, and review. Each stage is an
// external agent or git invocation; the pipeline owns the transitions
// between them and writes every transition through the state store before
// proceeding, so a crash at any point leaves the task resumable.
package pipeline

import (
	"github.com/forgeworks/forge/internal/agent"
	"github.com/forgeworks/forge/internal/clarify"
	"github.com/forgeworks/forge/internal/config"
	"github.com/forgeworks/forge/internal/logging"
	"github.com/forgeworks/forge/internal/state"
	"github.com/forgeworks/forge/internal/worktree"
)

// Pipeline processes tasks for one repository.
type Pipeline struct {
	cfg       *config.Config
	repo      config.RepoConfig
	invoker   agent.Invoker
	store     *state.Store
	worktrees *worktree.Manager
	clarify   *clarify.Channel
	executor  worktree.CommandExecutor
	log       *logging.Logger
}

// New creates a Pipeline. The executor runs the repository's test command;
// pass a fake in tests.
func New(
	cfg *config.Config,
	repo config.RepoConfig,
	invoker agent.Invoker,
	store *state.Store,
	worktrees *worktree.Manager,
	clarifyCh *clarify.Channel,
	executor worktree.CommandExecutor,
	log *logging.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		repo:      repo,
		invoker:   invoker,
		store:     store,
		worktrees: worktrees,
		clarify:   clarifyCh,
		executor:  executor,
		log:       log,
	}
}
