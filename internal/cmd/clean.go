package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forgeworks/forge/internal/cleanup"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove worktrees and branches of finished tasks",
	Long: `Remove the worktrees and local branches of succeeded tasks. With
--force, failed and paused tasks are swept too; in-flight tasks are
never touched.`,
	RunE: runClean,
}

var cleanForce bool

func init() {
	cleanCmd.Flags().BoolVar(&cleanForce, "force", false, "also remove worktrees of failed and paused tasks")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
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
		sweeper := cleanup.NewSweeper(r.store, r.worktrees, r.cfg.Path, a.cfg.WorktreeDir, a.log)
		results, err := sweeper.Sweep(cleanForce)
		if err != nil {
			return err
		}
		fmt.Printf("%s: removed %d worktrees, deleted %d branches, skipped %d\n",
			r.cfg.FullName(), results.WorktreesRemoved, results.BranchesDeleted, results.Skipped)
		for _, e := range results.Errors {
			fmt.Printf("  warning: %s\n", e)
		}
	}
	return nil
}
