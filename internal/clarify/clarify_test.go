package clarify

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forgeworks/forge/internal/task"
)

func testTask() *task.Task {
	return &task.Task{
		ID:    "12",
		Title: "Add rate limiting",
		Body:  "Requests to /api should be limited per client.",
	}
}

func testAnalysis() *task.TriageResult {
	return &task.TriageResult{
		Complexity:    "high",
		Plan:          "Add a token bucket middleware",
		RelevantFiles: []string{"server/middleware.go", "server/router.go"},
		Context:       "Existing middleware chain lives in server/middleware.go",
	}
}

func TestQuestionAnswerRoundTrip(t *testing.T) {
	ch := NewChannel(t.TempDir())

	err := ch.WriteQuestion(testTask(), testAnalysis(), "Which limit applies to authenticated clients?")
	if err != nil {
		t.Fatalf("WriteQuestion() error = %v", err)
	}

	// No answer yet.
	ctx, err := ch.CheckAnswer("12")
	if err != nil {
		t.Fatalf("CheckAnswer() error = %v", err)
	}
	if ctx != nil {
		t.Fatal("CheckAnswer() found answer before one was written")
	}

	if err := ch.WriteAnswer("12", "100 req/min for authenticated, 10 for anonymous."); err != nil {
		t.Fatalf("WriteAnswer() error = %v", err)
	}

	ctx, err = ch.CheckAnswer("12")
	if err != nil {
		t.Fatalf("CheckAnswer() error = %v", err)
	}
	if ctx == nil {
		t.Fatal("CheckAnswer() = nil after answer written")
	}
	if !strings.Contains(ctx.Answer, "100 req/min") {
		t.Errorf("Answer = %q, want answer text preserved", ctx.Answer)
	}
	if ctx.PreviousAnalysis.Plan != "Add a token bucket middleware" {
		t.Errorf("recovered Plan = %q", ctx.PreviousAnalysis.Plan)
	}
	if len(ctx.PreviousAnalysis.RelevantFiles) != 2 || ctx.PreviousAnalysis.RelevantFiles[0] != "server/middleware.go" {
		t.Errorf("recovered RelevantFiles = %v", ctx.PreviousAnalysis.RelevantFiles)
	}
	if ctx.PreviousAnalysis.Context != "Existing middleware chain lives in server/middleware.go" {
		t.Errorf("recovered Context = %q", ctx.PreviousAnalysis.Context)
	}
	if !strings.Contains(ctx.Questions, "authenticated clients") {
		t.Errorf("recovered Questions = %q", ctx.Questions)
	}
}

func TestCheckAnswerIgnoresBlankFile(t *testing.T) {
	ch := NewChannel(t.TempDir())

	if err := ch.WriteAnswer("9", "   \n\t\n"); err != nil {
		t.Fatal(err)
	}

	ctx, err := ch.CheckAnswer("9")
	if err != nil {
		t.Fatalf("CheckAnswer() error = %v", err)
	}
	if ctx != nil {
		t.Error("CheckAnswer() accepted a whitespace-only answer")
	}
}

func TestCheckAnswerWithoutQuestionFile(t *testing.T) {
	ch := NewChannel(t.TempDir())

	if err := ch.WriteAnswer("5", "just do it the simple way"); err != nil {
		t.Fatal(err)
	}

	ctx, err := ch.CheckAnswer("5")
	if err != nil {
		t.Fatalf("CheckAnswer() error = %v", err)
	}
	if ctx == nil {
		t.Fatal("CheckAnswer() = nil; an answer without a question should still resume")
	}
	if ctx.Answer != "just do it the simple way" {
		t.Errorf("Answer = %q", ctx.Answer)
	}
	if ctx.PreviousAnalysis.Complexity != "medium" {
		t.Errorf("recovered Complexity = %q, want medium fallback", ctx.PreviousAnalysis.Complexity)
	}
}

func TestListPendingSkipsAnswered(t *testing.T) {
	ch := NewChannel(t.TempDir())

	a := testAnalysis()
	for _, id := range []string{"3", "1", "2"} {
		tk := &task.Task{ID: id, Title: "t" + id, Body: "b"}
		if err := ch.WriteQuestion(tk, a, "q"+id); err != nil {
			t.Fatal(err)
		}
	}
	if err := ch.WriteAnswer("2", "resolved"); err != nil {
		t.Fatal(err)
	}

	pending, err := ch.ListPending()
	if err != nil {
		t.Fatalf("ListPending() error = %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("ListPending() returned %d entries, want 2", len(pending))
	}
	if pending[0].TaskID != "1" || pending[1].TaskID != "3" {
		t.Errorf("pending ids = [%s %s], want sorted [1 3]", pending[0].TaskID, pending[1].TaskID)
	}
	if !strings.Contains(pending[0].Content, "Clarification needed") {
		t.Errorf("pending content missing header: %q", pending[0].Content)
	}
}

func TestListPendingMissingDir(t *testing.T) {
	ch := NewChannel(filepath.Join(t.TempDir(), "nonexistent"))

	pending, err := ch.ListPending()
	if err != nil {
		t.Fatalf("ListPending() error = %v", err)
	}
	if pending != nil {
		t.Errorf("ListPending() = %v, want nil", pending)
	}
}

func TestCleanupRemovesBothFiles(t *testing.T) {
	ch := NewChannel(t.TempDir())

	if err := ch.WriteQuestion(testTask(), testAnalysis(), "q"); err != nil {
		t.Fatal(err)
	}
	if err := ch.WriteAnswer("12", "a"); err != nil {
		t.Fatal(err)
	}

	if err := ch.Cleanup("12"); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}

	entries, err := os.ReadDir(ch.Dir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("Cleanup() left %d files behind", len(entries))
	}

	// Idempotent.
	if err := ch.Cleanup("12"); err != nil {
		t.Errorf("second Cleanup() error = %v", err)
	}
}
