package state

// Status is the lifecycle status of a task record.
type Status string

const (
	// StatusPending means queued, not yet started.
	StatusPending Status = "pending"
	// StatusTriaging means stage 1 is in progress.
	StatusTriaging Status = "triaging"
	// StatusNeedsClarification means blocked on human input.
	StatusNeedsClarification Status = "needs_clarification"
	// StatusExecuting means the implement stage is in progress.
	StatusExecuting Status = "executing"
	// StatusSuccess means fully integrated.
	StatusSuccess Status = "success"
	// StatusTestFailure means tests failed post-rebase.
	StatusTestFailure Status = "test_failure"
	// StatusError means an unrecoverable failure: rebase conflict, agent
	// error, or retries exhausted.
	StatusError Status = "error"
)

// IsTerminal reports whether no further automated transition occurs from
// this status without external intervention. NeedsClarification is terminal
// until an answer arrives and resets the task to pending.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusNeedsClarification, StatusSuccess, StatusTestFailure, StatusError:
		return true
	default:
		return false
	}
}

// IsResumable reports whether a restart sweep may re-fetch and reprocess a
// task in this status from the top of the pipeline. Stages are safe to
// re-run: re-triage overwrites the prior plan and re-implementing in an
// existing workspace is additive.
func (s Status) IsResumable() bool {
	switch s {
	case StatusTriaging, StatusExecuting, StatusError, StatusTestFailure:
		return true
	default:
		return false
	}
}
