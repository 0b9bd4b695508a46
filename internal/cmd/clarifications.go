package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clarificationsCmd = &cobra.Command{
	Use:   "clarifications",
	Short: "List unanswered clarification questions",
	RunE:  runClarifications,
}

func init() {
	rootCmd.AddCommand(clarificationsCmd)
}

func runClarifications(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.log.Close()

	repos, err := a.repos(cmd.Context())
	if err != nil {
		return err
	}

	found := false
	for _, r := range repos {
		pending, err := r.clarify.ListPending()
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			continue
		}
		found = true
		fmt.Println(headerStyle.Render(r.cfg.FullName()))
		for _, p := range pending {
			fmt.Printf("--- task %s ---\n%s\n", p.TaskID, p.Content)
		}
	}
	if !found {
		fmt.Println("no pending clarifications")
	}
	return nil
}
