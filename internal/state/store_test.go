package state

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forgeworks/forge/internal/errors"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.yaml")
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return s, path
}

func TestLoadMissingFile(t *testing.T) {
	s, _ := newTestStore(t)
	if got := s.Summary().Total(); got != 0 {
		t.Errorf("Total() = %d, want 0", got)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	if err := os.WriteFile(path, []byte("tasks: [not: valid: yaml\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() succeeded on corrupt file")
	}
	if !errors.Is(err, errors.ErrStateCorrupted) {
		t.Errorf("Load() error = %v, want ErrStateCorrupted", err)
	}
}

func TestSetStatusCreatesRecord(t *testing.T) {
	s, _ := newTestStore(t)

	if err := s.SetStatus("42", "Fix login bug", StatusTriaging); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}

	rec := s.Get("42")
	if rec == nil {
		t.Fatal("Get() = nil after SetStatus")
	}
	if rec.Title != "Fix login bug" {
		t.Errorf("Title = %q, want %q", rec.Title, "Fix login bug")
	}
	if rec.Status != StatusTriaging {
		t.Errorf("Status = %q, want %q", rec.Status, StatusTriaging)
	}
}

func TestRoundtripReload(t *testing.T) {
	s, path := newTestStore(t)

	if err := s.SetStatus("7", "Add caching", StatusExecuting); err != nil {
		t.Fatal(err)
	}
	if err := s.SetStarted("7"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetBranch("7", "forge/7"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSuccess("7"); err != nil {
		t.Fatal(err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() after persist error = %v", err)
	}

	rec := reloaded.Get("7")
	if rec == nil {
		t.Fatal("record lost across reload")
	}
	if rec.Status != StatusSuccess {
		t.Errorf("Status = %q, want %q", rec.Status, StatusSuccess)
	}
	if rec.Branch != "forge/7" {
		t.Errorf("Branch = %q, want %q", rec.Branch, "forge/7")
	}
	if rec.StartedAt == nil || rec.CompletedAt == nil {
		t.Error("timestamps lost across reload")
	}
}

func TestSetErrorStampsCompletion(t *testing.T) {
	s, _ := newTestStore(t)

	if err := s.SetStatus("9", "Flaky task", StatusExecuting); err != nil {
		t.Fatal(err)
	}
	if err := s.SetError("9", "agent exited 1"); err != nil {
		t.Fatal(err)
	}

	rec := s.Get("9")
	if rec.Status != StatusError {
		t.Errorf("Status = %q, want %q", rec.Status, StatusError)
	}
	if rec.Error != "agent exited 1" {
		t.Errorf("Error = %q, want reason preserved", rec.Error)
	}
	if rec.CompletedAt == nil {
		t.Error("CompletedAt not stamped on error")
	}
	if !s.IsTerminal("9") {
		t.Error("IsTerminal() = false for errored task")
	}
}

func TestResetToPendingClearsFailure(t *testing.T) {
	s, _ := newTestStore(t)

	if err := s.SetStatus("3", "Needs human", StatusNeedsClarification); err != nil {
		t.Fatal(err)
	}
	if err := s.ResetToPending("3"); err != nil {
		t.Fatal(err)
	}

	rec := s.Get("3")
	if rec.Status != StatusPending {
		t.Errorf("Status = %q, want %q", rec.Status, StatusPending)
	}
	if rec.Error != "" || rec.CompletedAt != nil {
		t.Error("failure fields not cleared by reset")
	}

	// Idempotent.
	if err := s.ResetToPending("3"); err != nil {
		t.Fatal(err)
	}
	if got := s.Get("3").Status; got != StatusPending {
		t.Errorf("second reset: Status = %q, want pending", got)
	}
}

func TestResumableAndClarificationQueries(t *testing.T) {
	s, _ := newTestStore(t)

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(s.SetStatus("a", "a", StatusExecuting))
	must(s.SetStatus("b", "b", StatusNeedsClarification))
	must(s.SetStatus("c", "c", StatusSuccess))
	must(s.SetStatus("d", "d", StatusError))

	resumable := s.Resumable()
	if len(resumable) != 2 {
		t.Fatalf("Resumable() = %v, want 2 ids", resumable)
	}
	for _, id := range resumable {
		if id != "a" && id != "d" {
			t.Errorf("unexpected resumable id %q", id)
		}
	}

	waiting := s.NeedsClarification()
	if len(waiting) != 1 || waiting[0] != "b" {
		t.Errorf("NeedsClarification() = %v, want [b]", waiting)
	}

	if !s.IsProcessed("c") {
		t.Error("IsProcessed() = false for succeeded task")
	}
	if s.IsProcessed("d") {
		t.Error("IsProcessed() = true for errored task")
	}
}

func TestSummaryBuckets(t *testing.T) {
	s, _ := newTestStore(t)

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(s.SetStatus("1", "1", StatusPending))
	must(s.SetStatus("2", "2", StatusTriaging))
	must(s.SetStatus("3", "3", StatusExecuting))
	must(s.SetStatus("4", "4", StatusSuccess))
	must(s.SetStatus("5", "5", StatusNeedsClarification))
	must(s.SetStatus("6", "6", StatusTestFailure))
	must(s.SetStatus("7", "7", StatusError))

	sum := s.Summary()
	if sum.Pending != 1 || sum.InProgress != 2 || sum.Completed != 1 || sum.Waiting != 1 || sum.Failed != 2 {
		t.Errorf("Summary() = %+v", sum)
	}
	if sum.Total() != 7 {
		t.Errorf("Total() = %d, want 7", sum.Total())
	}
}

func TestNoTempFilesLeftBehind(t *testing.T) {
	s, path := newTestStore(t)

	if err := s.SetStatus("x", "x", StatusSuccess); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("temp file %q left behind", e.Name())
		}
	}
}
