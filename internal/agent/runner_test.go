package agent

import (
	"testing"

	"github.com/forgeworks/forge/internal/errors"
	"github.com/forgeworks/forge/internal/task"
)

func TestExtractJSONFencedJSONBlock(t *testing.T) {
	input := "Here's the result:\n```json\n{\"actionable\": true}\n```\nmore text"
	if got := ExtractJSON(input); got != `{"actionable": true}` {
		t.Errorf("ExtractJSON() = %q", got)
	}
}

func TestExtractJSONGenericFence(t *testing.T) {
	input := "```javascript\n{\"a\": 1}\n```"
	if got := ExtractJSON(input); got != `{"a": 1}` {
		t.Errorf("ExtractJSON() = %q", got)
	}
}

func TestExtractJSONRaw(t *testing.T) {
	input := `{"actionable": true, "complexity": "low"}`
	if got := ExtractJSON(input); got != input {
		t.Errorf("ExtractJSON() = %q, want unchanged", got)
	}
}

func TestExtractJSONSurroundingProse(t *testing.T) {
	input := `The analysis shows: {"key": "value"} end`
	if got := ExtractJSON(input); got != `{"key": "value"}` {
		t.Errorf("ExtractJSON() = %q", got)
	}
}

func TestExtractJSONNoJSON(t *testing.T) {
	if got := ExtractJSON("  plain text  "); got != "plain text" {
		t.Errorf("ExtractJSON() = %q, want trimmed text", got)
	}
}

func TestExtractJSONPrefersJSONFence(t *testing.T) {
	// A json fence later in the text wins over an earlier plain fence span
	// only via the explicit ```json marker.
	input := "```json\n{\"right\": 1}\n```\nand also {\"wrong\": 2}"
	if got := ExtractJSON(input); got != `{"right": 1}` {
		t.Errorf("ExtractJSON() = %q", got)
	}
}

func TestDecodeResultEnvelope(t *testing.T) {
	var out struct {
		Actionable bool `json:"actionable"`
	}
	raw := `{"result": "{\"actionable\": true}", "cost_usd": 0.01}`
	if err := DecodeResult(raw, &out); err != nil {
		t.Fatalf("DecodeResult() error = %v", err)
	}
	if !out.Actionable {
		t.Error("Actionable = false, want true")
	}
}

func TestDecodeResultFencedPayload(t *testing.T) {
	var out task.TriageResult
	raw := `{"result": "Analysis done.\n` + "```json" + `\n{\"complexity\": \"high\", \"plan\": \"p\", \"relevant_files\": [\"a.go\"], \"implementation_steps\": [\"s\"], \"context\": \"c\"}\n` + "```" + `"}`
	if err := DecodeResult(raw, &out); err != nil {
		t.Fatalf("DecodeResult() error = %v", err)
	}
	if out.Complexity != "high" || len(out.RelevantFiles) != 1 {
		t.Errorf("DecodeResult() = %+v", out)
	}
}

func TestDecodeResultNotJSON(t *testing.T) {
	var out map[string]any
	err := DecodeResult("this is not json", &out)
	if !errors.Is(err, errors.ErrMalformedOutput) {
		t.Errorf("DecodeResult() error = %v, want ErrMalformedOutput", err)
	}
	if errors.IsRetryable(err) {
		t.Error("malformed output classified retryable")
	}
}

func TestDecodeResultMissingResultField(t *testing.T) {
	var out map[string]any
	err := DecodeResult(`{"cost_usd": 0.01}`, &out)
	if !errors.Is(err, errors.ErrMalformedOutput) {
		t.Errorf("DecodeResult() error = %v, want ErrMalformedOutput", err)
	}
}

func TestResolveModel(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"haiku", ModelHaiku},
		{"sonnet", ModelSonnet},
		{"opus", ModelOpus},
		{"OPUS", ModelOpus},
		{"gpt-4", ModelSonnet},
		{"", ModelSonnet},
	}
	for _, tc := range cases {
		if got := ResolveModel(tc.in); got != tc.want {
			t.Errorf("ResolveModel(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSelectModel(t *testing.T) {
	if got := SelectModel(task.ComplexityLow, "sonnet", "opus"); got != ModelSonnet {
		t.Errorf("low complexity selected %q", got)
	}
	if got := SelectModel(task.ComplexityMedium, "sonnet", "opus"); got != ModelSonnet {
		t.Errorf("medium complexity selected %q", got)
	}
	if got := SelectModel(task.ComplexityHigh, "sonnet", "opus"); got != ModelOpus {
		t.Errorf("high complexity selected %q", got)
	}
}
