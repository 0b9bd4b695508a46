package worktree

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forgeworks/forge/internal/errors"
)

// fakeExecutor records commands and replays scripted responses keyed by a
// substring of the joined command line.
type fakeExecutor struct {
	calls     []string
	responses map[string]fakeResponse
}

type fakeResponse struct {
	output string
	err    error
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{responses: make(map[string]fakeResponse)}
}

func (f *fakeExecutor) respond(match, output string, err error) {
	f.responses[match] = fakeResponse{output: output, err: err}
}

func (f *fakeExecutor) Run(dir, name string, args ...string) ([]byte, error) {
	call := name + " " + strings.Join(args, " ")
	f.calls = append(f.calls, call)
	for match, resp := range f.responses {
		if strings.Contains(call, match) {
			return []byte(resp.output), resp.err
		}
	}
	return nil, nil
}

func (f *fakeExecutor) called(match string) bool {
	for _, call := range f.calls {
		if strings.Contains(call, match) {
			return true
		}
	}
	return false
}

func TestCreateNewWorktree(t *testing.T) {
	repo := t.TempDir()
	exec := newFakeExecutor()
	m := NewManagerWithExecutor(repo, ".forge/worktrees", exec)

	path, err := m.Create("forge/42", "main")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	want := filepath.Join(repo, ".forge", "worktrees", "forge", "42")
	if path != want {
		t.Errorf("Create() path = %q, want %q", path, want)
	}
	if !exec.called("fetch origin main") {
		t.Error("Create() did not fetch the base branch")
	}
	if !exec.called("worktree add -b forge/42 " + want + " origin/main") {
		t.Errorf("Create() commands = %v, missing worktree add", exec.calls)
	}
}

func TestCreateIdempotentOnExistingPath(t *testing.T) {
	repo := t.TempDir()
	exec := newFakeExecutor()
	m := NewManagerWithExecutor(repo, "wt", exec)

	existing := filepath.Join(repo, "wt", "forge/7")
	if err := os.MkdirAll(existing, 0755); err != nil {
		t.Fatal(err)
	}

	path, err := m.Create("forge/7", "main")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if path != existing {
		t.Errorf("Create() path = %q, want existing %q", path, existing)
	}
	if len(exec.calls) != 0 {
		t.Errorf("Create() ran git on an existing worktree: %v", exec.calls)
	}
}

func TestCreateReattachesExistingBranch(t *testing.T) {
	repo := t.TempDir()
	exec := newFakeExecutor()
	exec.respond("worktree add -b", "fatal: a branch named 'forge/9' already exists", fmt.Errorf("exit status 128"))
	m := NewManagerWithExecutor(repo, "wt", exec)

	path, err := m.Create("forge/9", "main")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !exec.called("worktree add " + path + " forge/9") {
		t.Errorf("Create() did not retry without -b: %v", exec.calls)
	}
}

func TestCreateSurfacesOtherFailures(t *testing.T) {
	repo := t.TempDir()
	exec := newFakeExecutor()
	exec.respond("worktree add -b", "fatal: not a git repository", fmt.Errorf("exit status 128"))
	m := NewManagerWithExecutor(repo, "wt", exec)

	_, err := m.Create("forge/9", "main")
	if err == nil {
		t.Fatal("Create() succeeded despite git failure")
	}
	var gitErr *errors.GitError
	if !errors.As(err, &gitErr) {
		t.Fatalf("Create() error type = %T", err)
	}
	if !strings.Contains(gitErr.GitOutput, "not a git repository") {
		t.Errorf("GitOutput = %q, want captured output", gitErr.GitOutput)
	}
}

func TestCommitCount(t *testing.T) {
	exec := newFakeExecutor()
	exec.respond("rev-list --count origin/main..forge/3", "4\n", nil)
	m := NewManagerWithExecutor(t.TempDir(), "wt", exec)

	count, err := m.CommitCount("main", "forge/3")
	if err != nil {
		t.Fatalf("CommitCount() error = %v", err)
	}
	if count != 4 {
		t.Errorf("CommitCount() = %d, want 4", count)
	}
}

func TestRebaseAbortsOnConflict(t *testing.T) {
	exec := newFakeExecutor()
	exec.respond("rebase origin/main", "CONFLICT (content): merge conflict in main.go", fmt.Errorf("exit status 1"))
	m := NewManagerWithExecutor(t.TempDir(), "wt", exec)

	err := m.Rebase("/wt/forge/5", "main")
	if err == nil {
		t.Fatal("Rebase() succeeded despite conflict")
	}
	if !errors.Is(err, errors.ErrRebaseConflict) {
		t.Errorf("Rebase() error = %v, want ErrRebaseConflict", err)
	}
	if !exec.called("rebase --abort") {
		t.Errorf("Rebase() did not abort after conflict: %v", exec.calls)
	}
}

func TestRebaseNonConflictFailure(t *testing.T) {
	exec := newFakeExecutor()
	exec.respond("rebase origin/main", "error: could not read index", fmt.Errorf("exit status 1"))
	m := NewManagerWithExecutor(t.TempDir(), "wt", exec)

	err := m.Rebase("/wt/forge/5", "main")
	if err == nil {
		t.Fatal("Rebase() succeeded despite failure")
	}
	if errors.Is(err, errors.ErrRebaseConflict) {
		t.Error("non-conflict failure classified as conflict")
	}
	if !exec.called("rebase --abort") {
		t.Error("Rebase() left the worktree mid-rebase")
	}
}

func TestListParsesPorcelain(t *testing.T) {
	exec := newFakeExecutor()
	exec.respond("worktree list --porcelain",
		"worktree /repo\nHEAD abc\nbranch refs/heads/main\n\nworktree /repo/wt/forge/1\nHEAD def\nbranch refs/heads/forge/1\n", nil)
	m := NewManagerWithExecutor(t.TempDir(), "wt", exec)

	paths, err := m.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(paths) != 2 || paths[1] != "/repo/wt/forge/1" {
		t.Errorf("List() = %v", paths)
	}
}

func TestDeleteBranchNotFound(t *testing.T) {
	exec := newFakeExecutor()
	exec.respond("branch -D", "error: branch 'forge/9' not found", fmt.Errorf("exit status 1"))
	m := NewManagerWithExecutor(t.TempDir(), "wt", exec)

	err := m.DeleteBranch("forge/9")
	if !errors.Is(err, errors.ErrBranchNotFound) {
		t.Errorf("DeleteBranch() error = %v, want ErrBranchNotFound", err)
	}
}

func TestTruncateDiff(t *testing.T) {
	if got := TruncateDiff("short", 100); got != "short" {
		t.Errorf("TruncateDiff() = %q", got)
	}
	long := strings.Repeat("x", 200)
	if got := TruncateDiff(long, 100); len(got) != 100 {
		t.Errorf("TruncateDiff() len = %d, want 100", len(got))
	}
}
