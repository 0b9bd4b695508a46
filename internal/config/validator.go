package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a single validation failure.
type ValidationError struct {
	Field   string // The config field path (e.g., "parallel_workers")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Validate checks the Config for invalid values and returns all validation
// errors found.
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors

	if c.ParallelWorkers < 1 {
		errs = append(errs, ValidationError{
			Field:   "parallel_workers",
			Value:   c.ParallelWorkers,
			Message: "must be at least 1",
		})
	}
	if c.PollIntervalSecs < 1 {
		errs = append(errs, ValidationError{
			Field:   "poll_interval_secs",
			Value:   c.PollIntervalSecs,
			Message: "must be at least 1",
		})
	}
	if c.WorkerTimeoutSecs < 1 {
		errs = append(errs, ValidationError{
			Field:   "worker_timeout_secs",
			Value:   c.WorkerTimeoutSecs,
			Message: "must be at least 1",
		})
	}
	if c.TriageTimeoutSecs < 1 {
		errs = append(errs, ValidationError{
			Field:   "triage_timeout_secs",
			Value:   c.TriageTimeoutSecs,
			Message: "must be at least 1",
		})
	}
	if c.MaxReviewRetries < 0 {
		errs = append(errs, ValidationError{
			Field:   "max_review_retries",
			Value:   c.MaxReviewRetries,
			Message: "must not be negative",
		})
	}
	if c.AgentCommand == "" {
		errs = append(errs, ValidationError{
			Field:   "agent_command",
			Value:   c.AgentCommand,
			Message: "must not be empty",
		})
	}
	if c.WorktreeDir == "" {
		errs = append(errs, ValidationError{
			Field:   "worktree_dir",
			Value:   c.WorktreeDir,
			Message: "must not be empty",
		})
	}
	if c.StateFile == "" {
		errs = append(errs, ValidationError{
			Field:   "state_file",
			Value:   c.StateFile,
			Message: "must not be empty",
		})
	}
	if !isValidLogLevel(c.Logging.Level) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: "must be one of: " + strings.Join(ValidLogLevels(), ", "),
		})
	}

	for i, repo := range c.Repos {
		if repo.Owner != "" && repo.Name == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("repos[%d].name", i),
				Value:   repo.Name,
				Message: "must be set when owner is set",
			})
		}
	}

	return errs
}
