package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/forgeworks/forge/internal/agent"
	"github.com/forgeworks/forge/internal/clarify"
	"github.com/forgeworks/forge/internal/task"
)

// Triage runs the first-pass repository analysis for a task. When a
// clarification context is present (the task was paused on a question and
// a human answered), the prior analysis and the answer are folded into the
// prompt so the retry starts from where the last attempt stopped.
func (p *Pipeline) Triage(ctx context.Context, t *task.Task, clar *clarify.Context) (*task.TriageResult, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Task %s: %s\n", t.ID, t.Title)
	fmt.Fprintf(&b, "Labels: %s\n\n", strings.Join(t.Labels, ", "))
	b.WriteString(t.Body)

	if clar != nil {
		fmt.Fprintf(&b, "\n\n## Previous Analysis (from prior analysis attempt)\n")
		fmt.Fprintf(&b, "Relevant files: %s\n", strings.Join(clar.PreviousAnalysis.RelevantFiles, ", "))
		fmt.Fprintf(&b, "Plan: %s\n", clar.PreviousAnalysis.Plan)
		fmt.Fprintf(&b, "Context: %s\n\n", clar.PreviousAnalysis.Context)
		fmt.Fprintf(&b, "## Clarification from maintainer\n%s\n\n", clar.Answer)
		b.WriteString("Use the previous analysis as a starting point. The clarification above resolves\n")
		b.WriteString("questions from the prior attempt. Update the plan accordingly.")
	}

	log := p.log.WithTask(t.ID).WithStage("triage")
	log.Info("analyzing task", "title", t.Title)

	var result task.TriageResult
	err := p.invoker.RunJSON(ctx, agent.Request{
		Prompt:       b.String(),
		SystemPrompt: agent.SystemAnalyze,
		Model:        agent.ResolveModel(p.cfg.Models.Triage),
		WorkDir:      p.repo.Path,
		AllowedTools: p.cfg.TriageTools,
		Timeout:      p.cfg.TriageTimeout(),
	}, &result)
	if err != nil {
		return nil, err
	}

	log.Info("analysis complete",
		"complexity", result.Complexity,
		"relevant_files", len(result.RelevantFiles),
		"steps", len(result.ImplementationSteps),
		"sufficient", result.Sufficient())

	return &result, nil
}
