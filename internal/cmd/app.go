package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/forgeworks/forge/internal/agent"
	"github.com/forgeworks/forge/internal/clarify"
	"github.com/forgeworks/forge/internal/config"
	"github.com/forgeworks/forge/internal/errors"
	"github.com/forgeworks/forge/internal/issue"
	"github.com/forgeworks/forge/internal/logging"
	"github.com/forgeworks/forge/internal/orchestrator"
	"github.com/forgeworks/forge/internal/pipeline"
	"github.com/forgeworks/forge/internal/state"
	"github.com/forgeworks/forge/internal/worktree"
)

// app holds the loaded configuration and logger shared by all commands.
type app struct {
	cfg *config.Config
	log *logging.Logger
}

// repo bundles the per-repository components a command works with.
type repo struct {
	cfg       config.RepoConfig
	store     *state.Store
	clarify   *clarify.Channel
	worktrees *worktree.Manager
	orch      *orchestrator.Orchestrator
}

func loadApp() (*app, error) {
	cfg, verrs := config.Load()
	if len(verrs) > 0 {
		return nil, errors.Wrap(verrs, "invalid configuration")
	}
	log, err := logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		return nil, errors.Wrap(err, "failed to set up logging")
	}
	return &app{cfg: cfg, log: log}, nil
}

// repos builds the component set for every configured repository. With no
// repos configured, the current directory is used as a local-only repo.
func (a *app) repos(ctx context.Context) ([]*repo, error) {
	repoCfgs := a.cfg.Repos
	if len(repoCfgs) == 0 {
		repoCfgs = []config.RepoConfig{{Path: ".", BaseBranch: "main"}}
	}

	// One GitHub client is shared by every repo that needs one.
	var gh *issue.Client
	token := os.Getenv("GITHUB_TOKEN")

	// One permit pool bounds agent subprocesses across all repos. Permits
	// are held per call, not per task, so git and filesystem work between
	// agent calls never occupies a slot.
	gate := agent.NewGate(a.cfg.ParallelWorkers)

	var out []*repo
	for _, rc := range repoCfgs {
		store, err := state.Load(filepath.Join(rc.Path, a.cfg.StateFile))
		if err != nil {
			return nil, err
		}
		clarifyCh := clarify.NewChannel(rc.Path)
		worktrees := worktree.NewManager(rc.Path, a.cfg.WorktreeDir)
		invoker := agent.Gated(agent.NewRunner(a.cfg.AgentCommand, a.log), gate)

		pipe := pipeline.New(a.cfg, rc, invoker, store, worktrees, clarifyCh,
			worktree.NewCLICommandExecutor(), a.log)

		sources := []orchestrator.Source{orchestrator.NewLocalSource(rc.Path)}
		var reporter orchestrator.OutcomeReporter
		if rc.Owner != "" && rc.Name != "" {
			if gh == nil {
				gh, err = issue.NewClient(ctx, token, a.log)
				if err != nil {
					return nil, errors.Wrapf(err, "repo %s needs GitHub access", rc.FullName())
				}
			}
			sources = append(sources, issue.NewSource(gh, rc.Owner, rc.Name, rc.Label))
			reporter = issue.NewReporter(gh, rc.Owner, rc.Name, rc.Label, a.log)
		}

		orch := orchestrator.New(a.cfg, pipe, store, clarifyCh, sources, reporter, a.log)
		out = append(out, &repo{
			cfg:       rc,
			store:     store,
			clarify:   clarifyCh,
			worktrees: worktrees,
			orch:      orch,
		})
	}
	return out, nil
}
