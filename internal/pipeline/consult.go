package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/forgeworks/forge/internal/agent"
	"github.com/forgeworks/forge/internal/task"
)

// consultResponse is the consult agent's wire shape: either a completed
// analysis (status "resolved") or a question for a human.
type consultResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	task.TriageResult
}

// Consult escalates an insufficient triage to the complex model tier. The
// stronger model either completes the analysis or produces the questions a
// maintainer must answer.
func (p *Pipeline) Consult(ctx context.Context, t *task.Task, prior *task.TriageResult) (*task.ConsultOutcome, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Task %s: %s\n\n%s\n\n", t.ID, t.Title, t.Body)
	b.WriteString("## Previous triage attempt (insufficient):\n")
	fmt.Fprintf(&b, "- Plan: %s\n", prior.Plan)
	fmt.Fprintf(&b, "- Relevant files: %s\n", strings.Join(prior.RelevantFiles, ", "))
	fmt.Fprintf(&b, "- Steps: %s\n", strings.Join(prior.ImplementationSteps, "; "))
	fmt.Fprintf(&b, "- Context: %s", prior.Context)

	log := p.log.WithTask(t.ID).WithStage("consult")
	log.Info("escalating insufficient analysis")

	var resp consultResponse
	err := p.invoker.RunJSON(ctx, agent.Request{
		Prompt:       b.String(),
		SystemPrompt: agent.SystemConsult,
		Model:        agent.ResolveModel(p.cfg.Models.Complex),
		WorkDir:      p.repo.Path,
		AllowedTools: p.cfg.TriageTools,
		Timeout:      p.cfg.TriageTimeout(),
	}, &resp)
	if err != nil {
		return nil, err
	}

	if resp.Status == "resolved" {
		log.Info("consultation resolved", "relevant_files", len(resp.RelevantFiles))
		resolved := resp.TriageResult
		return &task.ConsultOutcome{Resolved: &resolved}, nil
	}

	question := resp.Message
	if question == "" {
		question = "Unable to determine implementation plan"
	}
	log.Info("consultation needs clarification", "question", question)
	return &task.ConsultOutcome{Question: question}, nil
}
