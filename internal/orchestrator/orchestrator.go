// Package orchestrator schedules tasks through the pipeline. Each batch
// run gathers new, resumable, and freshly-answered tasks, runs each in its
// own worker goroutine, and reports terminal outcomes. Agent concurrency
// is bounded by the agent.Gate wrapped around the invoker, not here. One
// task's failure never aborts the batch.
package orchestrator

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/forgeworks/forge/internal/clarify"
	"github.com/forgeworks/forge/internal/config"
	"github.com/forgeworks/forge/internal/errors"
	"github.com/forgeworks/forge/internal/logging"
	"github.com/forgeworks/forge/internal/state"
	"github.com/forgeworks/forge/internal/task"
)

// TaskRunner drives one task to a terminal or paused status. Satisfied by
// *pipeline.Pipeline; tests substitute fakes.
type TaskRunner interface {
	Run(ctx context.Context, t *task.Task) error
}

// OutcomeReporter posts a task's terminal outcome back to its origin.
type OutcomeReporter interface {
	Report(ctx context.Context, t *task.Task, rec *state.Record)
}

// Orchestrator coordinates one repository's task processing.
type Orchestrator struct {
	cfg      *config.Config
	pipeline TaskRunner
	store    *state.Store
	clarify  *clarify.Channel
	sources  []Source
	reporter OutcomeReporter
	log      *logging.Logger
}

// New creates an Orchestrator. reporter may be nil for repositories with
// no tracker to report back to.
func New(
	cfg *config.Config,
	pipeline TaskRunner,
	store *state.Store,
	clarifyCh *clarify.Channel,
	sources []Source,
	reporter OutcomeReporter,
	log *logging.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		pipeline: pipeline,
		store:    store,
		clarify:  clarifyCh,
		sources:  sources,
		reporter: reporter,
		log:      log,
	}
}

// RunOnce processes one batch to completion: every gathered task ends
// terminal or paused before it returns.
func (o *Orchestrator) RunOnce(ctx context.Context) (state.Summary, error) {
	runID := uuid.NewString()[:8]
	log := o.log.WithRun(runID)

	tasks, err := o.gather(ctx, log)
	if err != nil {
		return state.Summary{}, err
	}
	log.Info("batch gathered", "tasks", len(tasks))

	// One goroutine per task. Concurrency is bounded at the agent layer:
	// the shared permit pool gates each subprocess call, and is free during
	// a task's own git and filesystem work between calls.
	var wg sync.WaitGroup
	for i := range tasks {
		t := &tasks[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			o.runTask(ctx, t, log)
		}()
	}

	wg.Wait()
	summary := o.store.Summary()
	log.Info("batch complete", "summary", summary.String())
	return summary, nil
}

// runTask runs one task with panic and error isolation: a failure here is
// recorded against the task and never propagates to the batch.
func (o *Orchestrator) runTask(ctx context.Context, t *task.Task, log *logging.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("task worker panicked", "task_id", t.ID, "panic", r)
			_ = o.store.SetError(t.ID, "internal worker failure")
		}
	}()

	if err := o.pipeline.Run(ctx, t); err != nil {
		terr := errors.NewTaskError("pipeline run failed", err).WithTaskID(t.ID)
		log.Error("pipeline infrastructure failure", "task_id", t.ID, "error", terr)
		_ = o.store.SetError(t.ID, terr.Error())
	}

	if o.reporter != nil {
		if rec := o.store.Get(t.ID); rec != nil && rec.Status.IsTerminal() {
			o.reporter.Report(ctx, t, rec)
		}
	}
}

// gather collects the batch via the three intake paths: new tasks from the
// sources, tasks resumable after a restart, and paused tasks whose
// clarification has been answered.
func (o *Orchestrator) gather(ctx context.Context, log *logging.Logger) ([]task.Task, error) {
	seen := make(map[string]bool)
	var batch []task.Task

	add := func(t task.Task) {
		if !seen[t.ID] {
			seen[t.ID] = true
			batch = append(batch, t)
		}
	}

	// New: open tasks not yet terminal in the store.
	for _, src := range o.sources {
		tasks, err := src.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		for _, t := range tasks {
			if o.store.IsTerminal(t.ID) {
				log.Debug("skipping terminal task", "task_id", t.ID)
				continue
			}
			add(t)
		}
	}

	// Resumable: tasks a previous run left mid-flight or failed.
	for _, id := range o.store.Resumable() {
		if seen[id] {
			continue
		}
		if t := o.fetchByID(ctx, id, log); t != nil {
			log.Info("resuming task", "task_id", id)
			add(*t)
		}
	}

	// Clarified: paused tasks whose answer file now exists.
	for _, id := range o.store.NeedsClarification() {
		if seen[id] {
			continue
		}
		answered, err := o.clarify.CheckAnswer(id)
		if err != nil {
			log.Warn("failed to check clarification answer", "task_id", id, "error", err)
			continue
		}
		if answered == nil {
			continue
		}
		if t := o.fetchByID(ctx, id, log); t != nil {
			log.Info("clarification answered, re-processing", "task_id", id)
			if err := o.store.ResetToPending(id); err != nil {
				return nil, err
			}
			add(*t)
		}
	}

	return batch, nil
}

func (o *Orchestrator) fetchByID(ctx context.Context, id string, log *logging.Logger) *task.Task {
	for _, src := range o.sources {
		t, err := src.FetchOne(ctx, id)
		if err == nil {
			return t
		}
	}
	log.Warn("could not fetch task content", "task_id", id)
	return nil
}
