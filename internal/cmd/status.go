package cmd

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/forgeworks/forge/internal/state"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show task state for every repository",
	Long:  `Display the recorded status of each tracked task, grouped by repository.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	waitStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.log.Close()

	repos, err := a.repos(cmd.Context())
	if err != nil {
		return err
	}

	for _, r := range repos {
		fmt.Println(headerStyle.Render(r.cfg.FullName()))

		tasks := r.store.All()
		if len(tasks) == 0 {
			fmt.Println(dimStyle.Render("  no tracked tasks"))
			fmt.Println()
			continue
		}

		ids := make([]string, 0, len(tasks))
		for id := range tasks {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			rec := tasks[id]
			fmt.Printf("  %s  %s  %s\n", id, statusStyle(rec.Status).Render(string(rec.Status)), rec.Title)
			if rec.Branch != "" {
				fmt.Printf("       %s\n", dimStyle.Render("branch: "+rec.Branch))
			}
			if rec.Error != "" {
				fmt.Printf("       %s\n", failStyle.Render(rec.Error))
			}
		}

		fmt.Println()
		fmt.Println("  " + r.store.Summary().String())
		fmt.Println()
	}
	return nil
}

func statusStyle(s state.Status) lipgloss.Style {
	switch s {
	case state.StatusSuccess:
		return successStyle
	case state.StatusError, state.StatusTestFailure:
		return failStyle
	case state.StatusNeedsClarification:
		return waitStyle
	case state.StatusTriaging, state.StatusExecuting:
		return activeStyle
	default:
		return dimStyle
	}
}
