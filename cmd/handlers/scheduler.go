package handlers

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"pheye/internal/config"
	"pheye/internal/logger"
	"pheye/internal/scheduler"
)

// NewSchedulerCmd creates the scheduler command
func NewSchedulerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scheduler",
		Short: "Run the staggered scrape scheduler",
		Long: `Run the staggered scrape scheduler.

Each configured source gets its own interval; intervals are staggered
so sources do not fire together. Every tick enqueues one scrape task
for that source. Run 'pheye worker' alongside to execute them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScheduler(cmd.Context())
		},
	}
}

func runScheduler(ctx context.Context) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	tasks, rdb, err := openQueue(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer rdb.Close()

	sched, err := scheduler.New(tasks, cfg.Scheduler.Intervals)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(ctx)
	defer cancel()

	logger.Get().Info("scheduler starting", "sources", sched.Sources())
	return sched.Run(ctx)
}
