package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/forgeworks/forge/internal/agent"
	"github.com/forgeworks/forge/internal/task"
)

// Implement runs the worker agent in the task's worktree. Review feedback
// from a rejected prior attempt is appended to the prompt so the retry is
// informed rather than a blind repeat.
func (p *Pipeline) Implement(
	ctx context.Context,
	t *task.Task,
	analysis *task.TriageResult,
	worktreePath string,
	feedback *task.ReviewResult,
) error {
	var b strings.Builder
	fmt.Fprintf(&b, "## Task %s: %s\n\n%s\n\n", t.ID, t.Title, t.Body)

	b.WriteString("## Triage Analysis\n")
	fmt.Fprintf(&b, "- Plan: %s\n", analysis.Plan)
	fmt.Fprintf(&b, "- Relevant files: %s\n", strings.Join(analysis.RelevantFiles, ", "))
	if len(analysis.ImplementationSteps) > 0 {
		b.WriteString("- Steps:\n")
		for _, step := range analysis.ImplementationSteps {
			fmt.Fprintf(&b, "  - %s\n", step)
		}
	}
	if analysis.Context != "" {
		fmt.Fprintf(&b, "- Context: %s\n", analysis.Context)
	}

	if p.repo.TestCommand != "" {
		fmt.Fprintf(&b, "\nRun the test command before committing: `%s`\n", p.repo.TestCommand)
	}

	if feedback != nil {
		b.WriteString("\n## Previous Review Feedback\n\nThe previous implementation was rejected. Address the following:\n")
		if len(feedback.Issues) > 0 {
			b.WriteString("\n### Issues\n")
			for _, issue := range feedback.Issues {
				fmt.Fprintf(&b, "- %s\n", issue)
			}
		}
		if len(feedback.Suggestions) > 0 {
			b.WriteString("\n### Suggestions\n")
			for _, suggestion := range feedback.Suggestions {
				fmt.Fprintf(&b, "- %s\n", suggestion)
			}
		}
	}

	model := agent.SelectModel(analysis.Tier(), p.cfg.Models.Default, p.cfg.Models.Complex)

	log := p.log.WithTask(t.ID).WithStage("implement")
	log.Info("running worker", "model", model, "complexity", analysis.Complexity)

	_, err := p.invoker.Run(ctx, agent.Request{
		Prompt:       b.String(),
		SystemPrompt: agent.SystemImplement,
		Model:        model,
		WorkDir:      worktreePath,
		AllowedTools: p.cfg.WorkerTools,
		Timeout:      p.cfg.WorkerTimeout(),
	})
	return err
}

// runTests executes the repository's test command in the worktree. It
// returns the combined output and whether the command succeeded. A
// configured empty command passes trivially.
func (p *Pipeline) runTests(worktreePath string) (string, bool) {
	if p.repo.TestCommand == "" {
		return "", true
	}

	parts := strings.Fields(p.repo.TestCommand)
	output, err := p.executor.Run(worktreePath, parts[0], parts[1:]...)
	return string(output), err == nil
}
