package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process one batch of tasks and exit",
	Long: `Fetch pending tasks from every configured source, run each through the
pipeline, and exit once the batch is terminal. Interrupted or answered
tasks from previous runs are picked up automatically.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.log.Close()

	repos, err := a.repos(ctx)
	if err != nil {
		return err
	}

	for _, r := range repos {
		summary, err := r.orch.RunOnce(ctx)
		if err != nil {
			return fmt.Errorf("batch failed for %s: %w", r.cfg.Path, err)
		}
		fmt.Printf("%s: %s\n", r.cfg.FullName(), summary.String())
	}
	return nil
}
