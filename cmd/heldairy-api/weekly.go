package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonnyWalker81/heldairy/backend/internal/worker"
)

var weeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Generate missing weekly insights once and exit",
	Long:  `Run the weekly insight job for every user once, then prune insights older than the retention period.`,
	RunE:  runWeekly,
}

var skipCleanup bool

func init() {
	weeklyCmd.Flags().BoolVar(&skipCleanup, "no-cleanup", false, "Skip the retention cleanup")
}

func runWeekly(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := bootstrap(ctx, nil)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	wc := a.workerConfig()
	report, err := worker.NewWeeklyScheduler(wc, a.store.Entries, a.store.Insights, a.weekly, a.settings).RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("weekly insight job failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if report.Disabled {
		fmt.Fprintln(out, "AI is disabled or has no API key; nothing generated")
	} else {
		fmt.Fprintf(out, "week %s..%s: %d users, %d generated, %d skipped, %d without data, %d failed\n",
			report.Week.StartDate(), report.Week.EndDate(), report.Users,
			report.Counts[worker.ResultGenerated], report.Counts[worker.ResultSkipped],
			report.Counts[worker.ResultNoData], report.Counts[worker.ResultFailed])
	}

	if skipCleanup {
		return nil
	}
	deleted, err := worker.NewRetentionCleaner(wc, a.store.Entries, a.store.Insights).RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("retention cleanup failed: %w", err)
	}
	fmt.Fprintf(out, "pruned %d weekly insights\n", deleted)
	return nil
}
