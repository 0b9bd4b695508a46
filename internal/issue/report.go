package issue

import (
	"context"
	"fmt"
	"strconv"

	"github.com/forgeworks/forge/internal/logging"
	"github.com/forgeworks/forge/internal/state"
	"github.com/forgeworks/forge/internal/task"
)

// Outcome labels applied after a task reaches a terminal status.
const (
	LabelSuccess            = "forge:done"
	LabelError              = "forge:error"
	LabelNeedsClarification = "forge:needs-input"
)

// Reporter posts terminal task outcomes back to the tracker: a comment
// describing the result and a label swap replacing the trigger label.
// All reporting is best-effort; a tracker hiccup never fails the task.
type Reporter struct {
	client *Client
	owner  string
	repo   string
	label  string
	log    *logging.Logger
}

// NewReporter creates a Reporter for one repository. label is the trigger
// label removed once an outcome is posted.
func NewReporter(client *Client, owner, repo, label string, log *logging.Logger) *Reporter {
	return &Reporter{client: client, owner: owner, repo: repo, label: label, log: log}
}

// Report posts the task's terminal outcome to its issue.
func (r *Reporter) Report(ctx context.Context, t *task.Task, rec *state.Record) {
	number, err := strconv.Atoi(t.ID)
	if err != nil {
		// Local tasks have non-numeric ids and nothing to report to.
		return
	}

	comment, label := outcomeFor(t, rec)
	if comment == "" {
		return
	}

	if err := r.client.AddComment(ctx, r.owner, r.repo, number, comment); err != nil {
		r.log.Warn("failed to post outcome comment", "task_id", t.ID, "error", err)
	}
	if err := r.client.AddLabels(ctx, r.owner, r.repo, number, []string{label}); err != nil {
		r.log.Warn("failed to add outcome label", "task_id", t.ID, "error", err)
	}
	if err := r.client.RemoveLabel(ctx, r.owner, r.repo, number, r.label); err != nil {
		r.log.Warn("failed to remove trigger label", "task_id", t.ID, "error", err)
	}
}

func outcomeFor(t *task.Task, rec *state.Record) (comment, label string) {
	switch rec.Status {
	case state.StatusSuccess:
		return fmt.Sprintf("Implemented on branch `%s`.", t.BranchName()), LabelSuccess
	case state.StatusError:
		return fmt.Sprintf("Could not resolve this task automatically: %s", rec.Error), LabelError
	case state.StatusTestFailure:
		return fmt.Sprintf("Implementation committed on `%s` but tests failed:\n\n```\n%s\n```",
			t.BranchName(), rec.Error), LabelError
	case state.StatusNeedsClarification:
		return "This task needs maintainer input before it can proceed. " +
			"See the pending question in the repository's clarification queue.", LabelNeedsClarification
	default:
		return "", ""
	}
}
