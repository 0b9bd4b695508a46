// Package task defines the core data types flowing through the pipeline:
// the unit of work itself, the triage analysis it produces, and the review
// verdict on its implementation.
package task

import (
	"fmt"
	"time"
)

// Task is the atomic unit of work the orchestrator resolves. Content is
// immutable once fetched; the orchestrator only derives state from it.
type Task struct {
	ID        string    `yaml:"-" json:"id"`
	Title     string    `yaml:"title" json:"title"`
	Body      string    `yaml:"body" json:"body"`
	Labels    []string  `yaml:"labels,omitempty" json:"labels,omitempty"`
	CreatedAt time.Time `yaml:"-" json:"created_at,omitempty"`
}

// BranchName returns the branch a task's changes are developed on.
func (t *Task) BranchName() string {
	return fmt.Sprintf("forge/%s", t.ID)
}

func (t *Task) String() string {
	return fmt.Sprintf("%s: %s", t.ID, t.Title)
}

// TriageResult is the analysis produced by the triage stage.
type TriageResult struct {
	Complexity          string   `json:"complexity"`
	Plan                string   `json:"plan"`
	RelevantFiles       []string `json:"relevant_files"`
	ImplementationSteps []string `json:"implementation_steps"`
	Context             string   `json:"context"`
}

// Sufficient reports whether the analysis is complete enough to implement
// from: a plan, at least one relevant file, and at least one step.
// Insufficiency is the sole trigger for escalation.
func (r *TriageResult) Sufficient() bool {
	return r.Plan != "" &&
		len(r.RelevantFiles) > 0 &&
		len(r.ImplementationSteps) > 0
}

// Tier returns the parsed complexity tier, falling back to Medium for
// unrecognized values.
func (r *TriageResult) Tier() Complexity {
	return ParseComplexity(r.Complexity)
}

// ReviewResult is the verdict from the review stage. Issues is non-empty
// when rejected; Suggestions is advisory either way.
type ReviewResult struct {
	Approved    bool     `json:"approved"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

// ConsultOutcome is the result of escalating an insufficient triage to the
// stronger model tier: either a corrected analysis or a question for a
// human.
type ConsultOutcome struct {
	Resolved *TriageResult
	Question string
}

// NeedsClarification reports whether the consult could not resolve the
// analysis on its own.
func (o *ConsultOutcome) NeedsClarification() bool {
	return o.Resolved == nil
}
