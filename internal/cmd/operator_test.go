package cmd

import (
	"strings"
	"testing"
)

func TestExtractQuestions(t *testing.T) {
	content := `# Clarification needed: Task 12

## Task
Add rate limiting

## Previous Analysis
Plan: partial

## Questions
1. Which endpoints need limits?
2. Per-user or global?
`
	got := extractQuestions(content)
	if !strings.Contains(got, "Which endpoints") || !strings.Contains(got, "Per-user or global?") {
		t.Errorf("extractQuestions() = %q, missing question lines", got)
	}
	if strings.Contains(got, "Previous Analysis") || strings.Contains(got, "partial") {
		t.Errorf("extractQuestions() = %q, leaked other sections", got)
	}
}

func TestExtractQuestionsNoSection(t *testing.T) {
	if got := extractQuestions("# Clarification needed: Task 3\n\n## Task\nFix it\n"); got != "" {
		t.Errorf("extractQuestions() = %q, want empty", got)
	}
}
