// Package clarify implements the file-backed clarification channel: when
// the pipeline cannot proceed without human input it writes a question
// file under the repository and pauses the task; a human answers by
// dropping a sibling answer file, which the next scheduling pass picks up.
package clarify

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/forgeworks/forge/internal/errors"
	"github.com/forgeworks/forge/internal/task"
)

// Context carries everything the re-triage needs after a human answers:
// the analysis state at the time the question was asked, the question
// itself, and the answer text.
type Context struct {
	PreviousAnalysis task.TriageResult
	Questions        string
	Answer           string
}

// Channel reads and writes clarification files under a repository root.
type Channel struct {
	repoPath string
}

// NewChannel returns a channel rooted at the given repository path.
func NewChannel(repoPath string) *Channel {
	return &Channel{repoPath: repoPath}
}

// Dir returns the directory clarification files live in.
func (c *Channel) Dir() string {
	return filepath.Join(c.repoPath, ".forge", "clarifications")
}

func (c *Channel) questionPath(taskID string) string {
	return filepath.Join(c.Dir(), taskID+".md")
}

func (c *Channel) answerPath(taskID string) string {
	return filepath.Join(c.Dir(), taskID+".answer.md")
}

// WriteQuestion persists a question file for the task, embedding the
// analysis so far so the answer flow can rebuild its context without
// re-running triage from scratch.
func (c *Channel) WriteQuestion(t *task.Task, analysis *task.TriageResult, questions string) error {
	if err := os.MkdirAll(c.Dir(), 0755); err != nil {
		return errors.Wrap(err, "failed to create clarifications directory")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Clarification needed: Task %s\n\n", t.ID)
	fmt.Fprintf(&b, "## Task\n%s\n%s\n\n", t.Title, t.Body)
	fmt.Fprintf(&b, "## Previous Analysis\n")
	fmt.Fprintf(&b, "Relevant files: %s\n", strings.Join(analysis.RelevantFiles, ", "))
	fmt.Fprintf(&b, "Plan: %s\n", analysis.Plan)
	fmt.Fprintf(&b, "Context: %s\n\n", analysis.Context)
	fmt.Fprintf(&b, "## Questions\n%s\n", questions)

	path := c.questionPath(t.ID)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return errors.Wrapf(err, "failed to write clarification file %s", path)
	}
	return nil
}

// CheckAnswer looks for a non-empty answer file for the task. It returns
// nil with no error when no usable answer exists yet. The question file is
// re-parsed on read so the channel survives process restarts.
func (c *Channel) CheckAnswer(taskID string) (*Context, error) {
	answer, err := os.ReadFile(c.answerPath(taskID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to read answer file for task %s", taskID)
	}
	if strings.TrimSpace(string(answer)) == "" {
		return nil, nil
	}

	// A missing question file is tolerable; the answer still resumes the
	// task, just without recovered analysis.
	question, _ := os.ReadFile(c.questionPath(taskID))
	analysis, questions := parseQuestionFile(string(question))

	return &Context{
		PreviousAnalysis: analysis,
		Questions:        questions,
		Answer:           string(answer),
	}, nil
}

// WriteAnswer writes the answer file for a task on behalf of the human.
func (c *Channel) WriteAnswer(taskID, text string) error {
	if err := os.MkdirAll(c.Dir(), 0755); err != nil {
		return errors.Wrap(err, "failed to create clarifications directory")
	}
	path := c.answerPath(taskID)
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return errors.Wrapf(err, "failed to write answer file %s", path)
	}
	return nil
}

// Cleanup removes both the question and answer files for a task once the
// answer has been consumed.
func (c *Channel) Cleanup(taskID string) error {
	for _, path := range []string{c.questionPath(taskID), c.answerPath(taskID)} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "failed to remove %s", path)
		}
	}
	return nil
}

// Pending is an unanswered question awaiting a human.
type Pending struct {
	TaskID  string
	Content string
}

// ListPending returns unanswered questions, sorted by task id.
func (c *Channel) ListPending() ([]Pending, error) {
	entries, err := os.ReadDir(c.Dir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to read clarifications directory")
	}

	var pending []Pending
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".answer.md") || !strings.HasSuffix(name, ".md") {
			continue
		}
		taskID := strings.TrimSuffix(name, ".md")
		if _, err := os.Stat(c.answerPath(taskID)); err == nil {
			continue
		}
		content, err := os.ReadFile(filepath.Join(c.Dir(), name))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read clarification file %s", name)
		}
		pending = append(pending, Pending{TaskID: taskID, Content: string(content)})
	}

	sort.Slice(pending, func(i, j int) bool { return pending[i].TaskID < pending[j].TaskID })
	return pending, nil
}

// parseQuestionFile recovers the embedded analysis and question text from
// a question file. Unknown sections are skipped; the recovered analysis
// defaults to medium complexity with no steps, which forces a fresh triage
// to fill them in.
func parseQuestionFile(content string) (task.TriageResult, string) {
	result := task.TriageResult{Complexity: "medium"}
	var questions []string
	section := ""

	for _, line := range strings.Split(content, "\n") {
		switch {
		case strings.HasPrefix(line, "## Previous Analysis"):
			section = "analysis"
			continue
		case strings.HasPrefix(line, "## Questions"):
			section = "questions"
			continue
		case strings.HasPrefix(line, "## "):
			section = ""
			continue
		}

		switch section {
		case "analysis":
			if rest, ok := strings.CutPrefix(line, "Relevant files: "); ok {
				result.RelevantFiles = strings.Split(rest, ", ")
			} else if rest, ok := strings.CutPrefix(line, "Plan: "); ok {
				result.Plan = rest
			} else if rest, ok := strings.CutPrefix(line, "Context: "); ok {
				result.Context = rest
			}
		case "questions":
			questions = append(questions, line)
		}
	}

	return result, strings.Join(questions, "\n")
}
