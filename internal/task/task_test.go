package task

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTriageResult_Sufficient(t *testing.T) {
	tests := []struct {
		name   string
		result TriageResult
		want   bool
	}{
		{
			name: "complete analysis",
			result: TriageResult{
				Plan:                "add a flag",
				RelevantFiles:       []string{"main.go"},
				ImplementationSteps: []string{"edit main.go"},
			},
			want: true,
		},
		{
			name: "missing plan",
			result: TriageResult{
				RelevantFiles:       []string{"main.go"},
				ImplementationSteps: []string{"edit main.go"},
			},
			want: false,
		},
		{
			name: "missing files",
			result: TriageResult{
				Plan:                "add a flag",
				ImplementationSteps: []string{"edit main.go"},
			},
			want: false,
		},
		{
			name: "missing steps",
			result: TriageResult{
				Plan:          "add a flag",
				RelevantFiles: []string{"main.go"},
			},
			want: false,
		},
		{
			name:   "empty",
			result: TriageResult{},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.Sufficient(); got != tt.want {
				t.Errorf("Sufficient() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseComplexity(t *testing.T) {
	tests := []struct {
		input string
		want  Complexity
	}{
		{"low", ComplexityLow},
		{"Low", ComplexityLow},
		{"  medium ", ComplexityMedium},
		{"HIGH", ComplexityHigh},
		{"", ComplexityMedium},
		{"trivial", ComplexityMedium},
		{"unknown", ComplexityMedium},
	}

	for _, tt := range tests {
		if got := ParseComplexity(tt.input); got != tt.want {
			t.Errorf("ParseComplexity(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestBranchName(t *testing.T) {
	tk := &Task{ID: "issue-42", Title: "Fix the thing"}
	if got := tk.BranchName(); got != "forge/issue-42" {
		t.Errorf("BranchName() = %q, want forge/issue-42", got)
	}
}

func TestConsultOutcome(t *testing.T) {
	resolved := &ConsultOutcome{Resolved: &TriageResult{Plan: "p"}}
	if resolved.NeedsClarification() {
		t.Error("resolved outcome should not need clarification")
	}

	question := &ConsultOutcome{Question: "which database?"}
	if !question.NeedsClarification() {
		t.Error("outcome without resolution should need clarification")
	}
}

func TestLoadLocal(t *testing.T) {
	dir := t.TempDir()

	writeTask := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	writeTask("beta.yaml", "title: Second task\nbody: body text\nlabels: [bug]\n")
	writeTask("alpha.yaml", "title: First task\nbody: other body\n")
	writeTask("notes.txt", "not a task")

	tasks, err := LoadLocal(dir)
	if err != nil {
		t.Fatalf("LoadLocal failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].ID != "alpha" || tasks[1].ID != "beta" {
		t.Errorf("expected sorted ids [alpha beta], got [%s %s]", tasks[0].ID, tasks[1].ID)
	}
	if tasks[1].Title != "Second task" {
		t.Errorf("expected title 'Second task', got %q", tasks[1].Title)
	}
	if len(tasks[1].Labels) != 1 || tasks[1].Labels[0] != "bug" {
		t.Errorf("expected labels [bug], got %v", tasks[1].Labels)
	}
}

func TestLoadLocal_MissingDir(t *testing.T) {
	tasks, err := LoadLocal(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("missing dir should not be an error: %v", err)
	}
	if tasks != nil {
		t.Errorf("expected no tasks, got %v", tasks)
	}
}
