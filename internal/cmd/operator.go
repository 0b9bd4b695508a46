package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var operatorCmd = &cobra.Command{
	Use:   "operator",
	Short: "Hand off to an interactive agent session briefed on pipeline state",
	Long: `Start an interactive agent session primed with the current task states
and any unanswered clarification questions. The session replaces the
forge process; forge is done once the handoff happens.`,
	RunE: runOperator,
}

var operatorModel string

func init() {
	operatorCmd.Flags().StringVar(&operatorModel, "model", "", "model alias or ID for the session")
	rootCmd.AddCommand(operatorCmd)
}

func runOperator(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	repos, err := a.repos(cmd.Context())
	if err != nil {
		return err
	}

	briefing, err := buildBriefing(repos)
	if err != nil {
		return err
	}
	a.log.Close()

	agentPath, err := exec.LookPath(a.cfg.AgentCommand)
	if err != nil {
		return fmt.Errorf("agent binary %q not found in PATH: %w", a.cfg.AgentCommand, err)
	}

	argv := []string{a.cfg.AgentCommand, "--append-system-prompt", briefing, "--allowedTools", "Bash"}
	if operatorModel != "" {
		argv = append(argv, "--model", operatorModel)
	}
	// Replace this process entirely; the interactive session owns the
	// terminal from here on.
	return syscall.Exec(agentPath, argv, os.Environ())
}

func buildBriefing(repos []*repo) (string, error) {
	var sb strings.Builder
	sb.WriteString("You are operating a forge task pipeline. Current state:\n\n")

	for _, r := range repos {
		sb.WriteString(fmt.Sprintf("Repository %s: %s\n", r.cfg.FullName(), r.store.Summary().String()))
		for id, rec := range r.store.All() {
			sb.WriteString(fmt.Sprintf("- task %s [%s] %s\n", id, rec.Status, rec.Title))
			if rec.Error != "" {
				sb.WriteString(fmt.Sprintf("  error: %s\n", rec.Error))
			}
		}

		pending, err := r.clarify.ListPending()
		if err != nil {
			return "", err
		}
		for _, p := range pending {
			if q := extractQuestions(p.Content); q != "" {
				sb.WriteString(fmt.Sprintf("\nTask %s is waiting on these questions:\n%s\n", p.TaskID, q))
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Answer pending questions with `forge answer <task-id> <text>`, " +
		"inspect details with `forge status`, and start a batch with `forge run`.")
	return sb.String(), nil
}

// extractQuestions returns the body of the "## Questions" section of a
// clarification file, or the empty string if there is none.
func extractQuestions(content string) string {
	var out []string
	inSection := false
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "## ") {
			inSection = strings.TrimSpace(line) == "## Questions"
			continue
		}
		if inSection {
			out = append(out, line)
		}
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
