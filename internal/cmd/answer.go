package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forgeworks/forge/internal/clarify"
)

var answerCmd = &cobra.Command{
	Use:   "answer <task-id> <text>...",
	Short: "Answer a task's clarification question",
	Long: `Write an answer for a paused task. The next batch picks the answer up,
re-triages the task with it, and continues processing.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAnswer,
}

var answerRepo string

func init() {
	answerCmd.Flags().StringVar(&answerRepo, "repo", ".", "repository path the task belongs to")
	rootCmd.AddCommand(answerCmd)
}

func runAnswer(cmd *cobra.Command, args []string) error {
	taskID := args[0]
	text := strings.Join(args[1:], " ")

	ch := clarify.NewChannel(answerRepo)
	if err := ch.WriteAnswer(taskID, text); err != nil {
		return err
	}
	fmt.Printf("answer recorded for task %s\n", taskID)
	return nil
}
