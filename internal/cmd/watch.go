package cmd

import (
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll for tasks continuously",
	Long: `Run batches on the configured poll interval until interrupted. An
answer file appearing in the clarification directory wakes the loop
early so answered tasks resume without waiting out the interval.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
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

	// Each repo watches independently; the first interrupt stops them all.
	var wg sync.WaitGroup
	for _, r := range repos {
		wg.Add(1)
		go func(r *repo) {
			defer wg.Done()
			if err := r.orch.Watch(ctx); err != nil && ctx.Err() == nil {
				a.log.Error("watch loop exited", "repo", r.cfg.FullName(), "error", err)
			}
		}(r)
	}
	wg.Wait()
	return nil
}
