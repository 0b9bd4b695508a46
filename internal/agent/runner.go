// Package agent invokes the external coding agent as a subprocess. Each
// call runs `claude -p` with a role system prompt, a model, a tool
// allowlist, and a deadline; results come back as raw text or as JSON
// extracted from the agent's transport envelope.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/forgeworks/forge/internal/errors"
	"github.com/forgeworks/forge/internal/logging"
)

// Request describes a single agent invocation.
type Request struct {
	Prompt       string
	SystemPrompt string
	Model        string
	WorkDir      string
	AllowedTools []string
	Timeout      time.Duration
}

// Invoker runs agent calls. The pipeline depends on this interface so
// tests can substitute scripted responses for real subprocess calls.
type Invoker interface {
	// Run executes the agent and returns its raw text output.
	Run(ctx context.Context, req Request) (string, error)

	// RunJSON executes the agent, unwraps the transport envelope, extracts
	// the embedded JSON, and unmarshals it into out.
	RunJSON(ctx context.Context, req Request, out any) error
}

// Runner invokes the claude CLI.
type Runner struct {
	binary string
	log    *logging.Logger
}

// NewRunner creates a Runner invoking the given agent binary. An empty
// binary means the claude binary on PATH.
func NewRunner(binary string, log *logging.Logger) *Runner {
	if binary == "" {
		binary = "claude"
	}
	return &Runner{binary: binary, log: log}
}

// Run executes the agent subprocess with the prompt on stdin. The call is
// bounded by req.Timeout: on expiry the subprocess is killed and a timeout
// error returned rather than hanging the worker.
func (r *Runner) Run(ctx context.Context, req Request) (string, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	args := []string{"-p", "--model", req.Model, "--output-format", "json"}
	if req.SystemPrompt != "" {
		args = append(args, "--append-system-prompt", req.SystemPrompt)
	}
	if len(req.AllowedTools) > 0 {
		args = append(args, "--allowedTools", strings.Join(req.AllowedTools, ","))
	}

	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Dir = req.WorkDir
	cmd.Stdin = strings.NewReader(req.Prompt)
	cmd.Env = filteredEnv()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.Debug("running agent",
		"model", req.Model,
		"work_dir", req.WorkDir,
		"prompt_bytes", len(req.Prompt))

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if ctx.Err() == context.DeadlineExceeded {
		return "", errors.NewTimeoutError("agent call", req.Timeout)
	}
	if err != nil {
		return "", errors.NewAgentError("agent exited abnormally", errors.ErrAgentFailed).
			WithModel(req.Model).
			WithRetryable(true).
			WithStderr(stderr.String())
	}

	r.log.Debug("agent call completed",
		"model", req.Model,
		"elapsed", elapsed.String(),
		"output_bytes", stdout.Len())

	return stdout.String(), nil
}

// RunJSON executes the agent and decodes its JSON output. The raw output
// is a transport envelope whose "result" field holds the agent's text;
// that text may wrap the actual JSON in markdown fencing or prose.
func (r *Runner) RunJSON(ctx context.Context, req Request, out any) error {
	raw, err := r.Run(ctx, req)
	if err != nil {
		return err
	}
	return DecodeResult(raw, out)
}

// DecodeResult unwraps the agent's transport envelope and unmarshals the
// embedded JSON into out.
func DecodeResult(raw string, out any) error {
	var envelope struct {
		Result *string `json:"result"`
	}
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return errors.NewAgentError("failed to parse agent output as JSON", errors.ErrMalformedOutput).
			WithRetryable(false)
	}
	if envelope.Result == nil {
		return errors.NewAgentError("agent output missing result field", errors.ErrMalformedOutput).
			WithRetryable(false)
	}

	jsonStr := ExtractJSON(*envelope.Result)
	if err := json.Unmarshal([]byte(jsonStr), out); err != nil {
		return errors.NewAgentError("failed to parse result as expected type", errors.ErrMalformedOutput).
			WithRetryable(false)
	}
	return nil
}

// ExtractJSON locates the JSON payload inside agent text that may wrap it
// in markdown fencing or surrounding prose. Extraction order: fenced
// ```json block, any fenced block, first '{' to last '}' span, then the
// raw trimmed text.
func ExtractJSON(text string) string {
	if start := strings.Index(text, "```json"); start >= 0 {
		rest := text[start+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
	}
	if start := strings.Index(text, "```"); start >= 0 {
		rest := text[start+len("```"):]
		// Skip a language identifier on the fence line.
		if nl := strings.Index(rest, "\n"); nl >= 0 {
			if end := strings.Index(rest[nl+1:], "```"); end >= 0 {
				return strings.TrimSpace(rest[nl+1 : nl+1+end])
			}
		} else if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
	}
	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			return text[start : end+1]
		}
	}
	return strings.TrimSpace(text)
}

// filteredEnv returns the current environment without the variables the
// claude CLI uses to detect it is already running inside itself. Removing
// them allows nested invocation.
func filteredEnv() []string {
	env := os.Environ()
	out := make([]string, 0, len(env))
	for _, kv := range env {
		if strings.HasPrefix(kv, "CLAUDECODE=") || strings.HasPrefix(kv, "CLAUDE_CODE_ENTRYPOINT=") {
			continue
		}
		out = append(out, kv)
	}
	return out
}

var _ Invoker = (*Runner)(nil)
