// Package errors provides centralized error definitions and error handling
// utilities for the forge codebase. It defines domain-specific errors,
// sentinel errors, constructors with context wrapping, and classification
// helpers.
//
// Domain-specific errors represent errors from specific subsystems:
//   - AgentError: errors from invoking the external coding agent
//   - GitError: errors from git operations (worktrees, branches, rebases)
//   - StateError: errors from the persistent state store
//   - TaskError: errors attributed to a single task's pipeline run
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrRebaseConflict) { ... }
//
//	var gitErr *errors.GitError
//	if errors.As(err, &gitErr) { ... }
//
//	if errors.IsRetryable(err) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions so callers can import only this
// package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Agent-related sentinel errors
var (
	// ErrAgentFailed indicates the agent subprocess exited non-zero.
	ErrAgentFailed = New("agent process failed")
	// ErrMalformedOutput indicates the agent responded but its output did
	// not parse as the expected JSON shape.
	ErrMalformedOutput = New("agent output malformed")
	// ErrTimeout indicates an agent call exceeded its deadline.
	ErrTimeout = New("operation timed out")
)

// Git-related sentinel errors
var (
	// ErrRebaseConflict indicates a rebase could not be applied cleanly.
	ErrRebaseConflict = New("rebase conflict")
	// ErrWorktreeNotFound indicates a worktree could not be found.
	ErrWorktreeNotFound = New("worktree not found")
	// ErrBranchExists indicates a branch already exists.
	ErrBranchExists = New("branch already exists")
	// ErrBranchNotFound indicates a branch could not be found.
	ErrBranchNotFound = New("branch not found")
)

// Pipeline-related sentinel errors
var (
	// ErrNoCommits indicates the implement stage completed without
	// producing any commits.
	ErrNoCommits = New("no commits produced")
	// ErrRetriesExhausted indicates review rejected past the attempt budget.
	ErrRetriesExhausted = New("review retries exhausted")
	// ErrInsufficientTriage indicates a triage result missing plan, files,
	// or steps. It triggers escalation, not a hard failure.
	ErrInsufficientTriage = New("triage result insufficient")
)

// Store-related sentinel errors
var (
	// ErrStateCorrupted indicates the state file could not be parsed.
	// Correctness depends on trusting the store, so this is fatal at load.
	ErrStateCorrupted = New("state file corrupted")
	// ErrNotFound indicates a record or resource could not be found.
	ErrNotFound = New("not found")
)

// ForgeError is the base interface for all forge errors. It extends the
// standard error interface with classification methods.
type ForgeError interface {
	error
	Unwrap() error
	Is(target error) bool

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on re-run.
	IsRetryable() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message   string
	cause     error
	retryable bool
}

func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *baseError) Unwrap() error { return e.cause }

func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

func (e *baseError) IsRetryable() bool { return e.retryable }

// AgentError represents a failure invoking the external coding agent.
//
//	err := errors.NewAgentError("triage call failed", cause).WithModel("sonnet")
type AgentError struct {
	baseError
	Model  string
	Stage  string
	Stderr string
}

// NewAgentError creates a new AgentError. Agent transport failures are
// retryable by default: re-running the stage is always safe.
func NewAgentError(message string, cause error) *AgentError {
	return &AgentError{
		baseError: baseError{message: message, cause: cause, retryable: true},
	}
}

// WithModel adds the model name to the error context.
func (e *AgentError) WithModel(model string) *AgentError {
	e.Model = model
	return e
}

// WithStage adds the pipeline stage name to the error context.
func (e *AgentError) WithStage(stage string) *AgentError {
	e.Stage = stage
	return e
}

// WithRetryable overrides whether the error is retryable.
func (e *AgentError) WithRetryable(r bool) *AgentError {
	e.retryable = r
	return e
}

// WithStderr adds captured subprocess stderr to the error context.
func (e *AgentError) WithStderr(stderr string) *AgentError {
	e.Stderr = stderr
	return e
}

func (e *AgentError) Error() string {
	var parts []string
	if e.Stage != "" {
		parts = append(parts, fmt.Sprintf("stage=%s", e.Stage))
	}
	if e.Model != "" {
		parts = append(parts, fmt.Sprintf("model=%s", e.Model))
	}

	prefix := "agent error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("agent error [%s]", strings.Join(parts, ", "))
	}

	msg := e.message
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	if e.Stderr != "" {
		msg = fmt.Sprintf("%s\nstderr: %s", msg, strings.TrimSpace(e.Stderr))
	}
	return fmt.Sprintf("%s: %s", prefix, msg)
}

func (e *AgentError) Is(target error) bool {
	if _, ok := target.(*AgentError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// GitError represents errors from git operations.
//
//	err := errors.NewGitError("rebase failed", errors.ErrRebaseConflict).
//		WithBranch("forge/42").WithGitOutput(out)
type GitError struct {
	baseError
	Branch    string
	Worktree  string
	GitOutput string
}

// NewGitError creates a new GitError.
func NewGitError(message string, cause error) *GitError {
	return &GitError{
		baseError: baseError{message: message, cause: cause},
	}
}

// WithBranch adds a branch name to the error context.
func (e *GitError) WithBranch(branch string) *GitError {
	e.Branch = branch
	return e
}

// WithWorktree adds a worktree path to the error context.
func (e *GitError) WithWorktree(path string) *GitError {
	e.Worktree = path
	return e
}

// WithGitOutput adds captured git command output to the error context.
func (e *GitError) WithGitOutput(output string) *GitError {
	e.GitOutput = output
	return e
}

func (e *GitError) Error() string {
	var parts []string
	if e.Branch != "" {
		parts = append(parts, fmt.Sprintf("branch=%s", e.Branch))
	}
	if e.Worktree != "" {
		parts = append(parts, fmt.Sprintf("worktree=%s", e.Worktree))
	}

	prefix := "git error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("git error [%s]", strings.Join(parts, ", "))
	}

	msg := e.message
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	if e.GitOutput != "" {
		msg = fmt.Sprintf("%s\ngit output: %s", msg, strings.TrimSpace(e.GitOutput))
	}

	return fmt.Sprintf("%s: %s", prefix, msg)
}

func (e *GitError) Is(target error) bool {
	if _, ok := target.(*GitError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// StateError represents errors from the persistent state store.
type StateError struct {
	baseError
	Path string
}

// NewStateError creates a new StateError.
func NewStateError(message string, cause error) *StateError {
	return &StateError{
		baseError: baseError{message: message, cause: cause},
	}
}

// WithPath adds the state file path to the error context.
func (e *StateError) WithPath(path string) *StateError {
	e.Path = path
	return e
}

func (e *StateError) Error() string {
	prefix := "state error"
	if e.Path != "" {
		prefix = fmt.Sprintf("state error [path=%s]", e.Path)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

func (e *StateError) Is(target error) bool {
	if _, ok := target.(*StateError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// TaskError represents an error attributed to a single task's pipeline run.
// One task's failure never aborts the batch; TaskError carries enough
// context to record the failure against that task only.
type TaskError struct {
	baseError
	TaskID string
	Stage  string
}

// NewTaskError creates a new TaskError.
func NewTaskError(message string, cause error) *TaskError {
	return &TaskError{
		baseError: baseError{message: message, cause: cause},
	}
}

// WithTaskID adds a task id to the error context.
func (e *TaskError) WithTaskID(id string) *TaskError {
	e.TaskID = id
	return e
}

// WithStage adds a pipeline stage name to the error context.
func (e *TaskError) WithStage(stage string) *TaskError {
	e.Stage = stage
	return e
}

func (e *TaskError) Error() string {
	var parts []string
	if e.TaskID != "" {
		parts = append(parts, fmt.Sprintf("task=%s", e.TaskID))
	}
	if e.Stage != "" {
		parts = append(parts, fmt.Sprintf("stage=%s", e.Stage))
	}

	prefix := "task error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("task error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

func (e *TaskError) Is(target error) bool {
	if _, ok := target.(*TaskError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// TimeoutError represents an operation that exceeded its deadline.
type TimeoutError struct {
	baseError
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a new TimeoutError. Timeouts are retryable.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{
		baseError: baseError{message: operation, retryable: true},
		Operation: operation,
		Duration:  duration,
	}
}

// WithCause adds a cause to the error.
func (e *TimeoutError) WithCause(cause error) *TimeoutError {
	e.cause = cause
	return e
}

func (e *TimeoutError) Error() string {
	base := fmt.Sprintf("timeout: %s (limit: %s)", e.Operation, e.Duration)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", base, e.cause)
	}
	return base
}

func (e *TimeoutError) Is(target error) bool {
	if _, ok := target.(*TimeoutError); ok {
		return true
	}
	if errors.Is(target, ErrTimeout) {
		return true
	}
	return e.baseError.Is(target)
}

// IsRetryable returns true if the error represents a transient condition
// that may succeed on re-run: transport/timeout failures of the agent
// subprocess, never malformed output or conflicts.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var forgeErr ForgeError
	if As(err, &forgeErr) {
		return forgeErr.IsRetryable()
	}

	return Is(err, ErrTimeout)
}

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
