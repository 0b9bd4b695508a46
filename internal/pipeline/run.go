package pipeline

import (
	"context"
	"fmt"

	"github.com/forgeworks/forge/internal/errors"
	"github.com/forgeworks/forge/internal/state"
	"github.com/forgeworks/forge/internal/task"
)

// Run drives one task from intake to a terminal or paused status. Every
// transition is written through the state store before the next stage
// begins. The returned error reports store or infrastructure failures
// only; task-level failures are recorded in the store and return nil.
func (p *Pipeline) Run(ctx context.Context, t *task.Task) error {
	log := p.log.WithTask(t.ID)

	if err := p.store.SetStatus(t.ID, t.Title, state.StatusTriaging); err != nil {
		return err
	}
	if err := p.store.SetStarted(t.ID); err != nil {
		return err
	}

	// A non-empty answer file means this task was paused on a question and
	// a human has responded; fold that into the triage.
	clar, err := p.clarify.CheckAnswer(t.ID)
	if err != nil {
		log.Warn("failed to read clarification answer", "error", err)
	}

	analysis, err := p.Triage(ctx, t, clar)
	if err != nil {
		return p.store.SetError(t.ID, fmt.Sprintf("triage failed: %v", err))
	}

	if !analysis.Sufficient() {
		outcome, err := p.Consult(ctx, t, analysis)
		if err != nil {
			return p.store.SetError(t.ID, fmt.Sprintf("consultation failed: %v", err))
		}
		if outcome.NeedsClarification() {
			// A consumed answer from an earlier round must not satisfy the
			// new question.
			if err := p.clarify.Cleanup(t.ID); err != nil {
				log.Warn("failed to clear stale clarification files", "error", err)
			}
			if err := p.clarify.WriteQuestion(t, analysis, outcome.Question); err != nil {
				return p.store.SetError(t.ID, fmt.Sprintf("failed to write clarification: %v", err))
			}
			log.Info("task paused on clarification")
			return p.store.SetStatus(t.ID, t.Title, state.StatusNeedsClarification)
		}
		analysis = outcome.Resolved
	}

	if err := p.store.SetStatus(t.ID, t.Title, state.StatusExecuting); err != nil {
		return err
	}

	branch := t.BranchName()
	worktreePath, err := p.worktrees.Create(branch, p.repo.BaseBranch)
	if err != nil {
		return p.store.SetError(t.ID, fmt.Sprintf("worktree creation failed: %v", err))
	}
	if err := p.store.SetBranch(t.ID, branch); err != nil {
		return err
	}

	// Attempt budget: the configured retries plus the initial attempt.
	attempts := p.cfg.MaxReviewRetries + 1
	var feedback *task.ReviewResult

	for attempt := 1; attempt <= attempts; attempt++ {
		log.Info("implementation attempt", "attempt", attempt, "of", attempts)

		if err := p.Implement(ctx, t, analysis, worktreePath, feedback); err != nil {
			return p.store.SetError(t.ID, fmt.Sprintf("implementation failed: %v", err))
		}

		commits, err := p.worktrees.CommitCount(p.repo.BaseBranch, branch)
		if err != nil {
			return p.store.SetError(t.ID, fmt.Sprintf("commit count failed: %v", err))
		}
		if commits == 0 {
			// Worktree is left intact for inspection.
			log.Warn("worker produced no commits")
			return p.store.SetError(t.ID, "no commits produced")
		}
		log.Info("commits produced", "count", commits)

		if output, ok := p.runTests(worktreePath); !ok {
			log.Warn("test command failed")
			return p.store.SetTestFailure(t.ID, output)
		}

		if err := p.worktrees.Rebase(worktreePath, p.repo.BaseBranch); err != nil {
			if errors.Is(err, errors.ErrRebaseConflict) {
				// Branch is left as-is for manual resolution; no force-push,
				// no retry.
				log.Warn("rebase conflict, manual resolution required")
				return p.store.SetError(t.ID, "rebase conflict")
			}
			return p.store.SetError(t.ID, fmt.Sprintf("rebase failed: %v", err))
		}

		review, err := p.Review(ctx, t, analysis, worktreePath)
		if err != nil {
			// Review failing to run is not the same as review rejecting:
			// fail open rather than discard a finished implementation.
			log.Warn("review could not run, accepting implementation", "review_failed", true, "error", err)
			review = &task.ReviewResult{Approved: true}
		}

		if review.Approved {
			if err := p.worktrees.Push(worktreePath); err != nil {
				return p.store.SetError(t.ID, fmt.Sprintf("push failed: %v", err))
			}
			// Clarification files outlive resumable failures so a retried
			// task still sees the answer; success is where they go away.
			if err := p.clarify.Cleanup(t.ID); err != nil {
				log.Warn("failed to clean up clarification files", "error", err)
			}
			log.Info("task completed", "branch", branch)
			return p.store.SetSuccess(t.ID)
		}

		feedback = review
		log.Info("review rejected implementation", "issues", len(review.Issues))
	}

	log.Warn("review retries exhausted")
	return p.store.SetError(t.ID,
		fmt.Sprintf("%v: rejected after %d attempts", errors.ErrRetriesExhausted, attempts))
}
