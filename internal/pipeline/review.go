package pipeline

import (
	"context"
	"fmt"

	"github.com/forgeworks/forge/internal/agent"
	"github.com/forgeworks/forge/internal/task"
	"github.com/forgeworks/forge/internal/worktree"
)

// maxDiffBytes caps how much of the diff is included in the review prompt.
const maxDiffBytes = 50000

// Review runs the review agent over the task's diff against the base
// branch and returns its verdict.
func (p *Pipeline) Review(ctx context.Context, t *task.Task, analysis *task.TriageResult, worktreePath string) (*task.ReviewResult, error) {
	diff, err := p.worktrees.Diff(worktreePath, p.repo.BaseBranch)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Review the following diff implementing a task.

## Task %s: %s

%s

## Implementation Plan

%s

## Diff

`+"```"+`
%s
`+"```"+`

## Review Criteria

1. Does the implementation satisfy the task requirements?
2. Does the code follow existing patterns and conventions?
3. Are there any obvious bugs or security issues?
4. Is the implementation consistent with the plan?

Respond with ONLY a JSON object (no markdown, no explanation):
{
  "approved": <boolean - true if the code is acceptable>,
  "issues": ["<list of problems found, empty if approved>"],
  "suggestions": ["<list of improvement suggestions, can be empty>"]
}`,
		t.ID, t.Title, t.Body, analysis.Plan, worktree.TruncateDiff(diff, maxDiffBytes))

	log := p.log.WithTask(t.ID).WithStage("review")
	log.Info("reviewing implementation", "diff_bytes", len(diff))

	var result task.ReviewResult
	err = p.invoker.RunJSON(ctx, agent.Request{
		Prompt:       prompt,
		Model:        agent.ResolveModel(p.cfg.Models.Default),
		WorkDir:      worktreePath,
		AllowedTools: p.cfg.TriageTools,
		Timeout:      p.cfg.TriageTimeout(),
	}, &result)
	if err != nil {
		return nil, err
	}

	log.Info("review complete",
		"approved", result.Approved,
		"issues", len(result.Issues),
		"suggestions", len(result.Suggestions))

	return &result, nil
}
