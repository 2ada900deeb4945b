package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"olympics/internal/config"
	"olympics/internal/orchestrate/temporal"
)

// NewScheduleCommand creates the schedule command.
func NewScheduleCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		src     sourceFlags
		cron    string
		trigger bool
	)
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Create or update the recurring Temporal schedule",
		Long: `Create the schedule that starts the pipeline workflow, or update its
cron expression and run parameters when it already exists.

Run parameters default to bucket raw-csv-storage, subfolder raw-olympics
and local path data/raw; configuration and flags override them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, config.ScopeSchedule, func(c *config.Config) {
				if cron != "" {
					c.Temporal.Cron = cron
				}
			})
			if err != nil {
				return err
			}
			defer s.close()

			ctx := cmd.Context()
			c, err := temporal.Dial(ctx, s.cfg.Temporal, temporal.DefaultDialOptions, s.log)
			if err != nil {
				return err
			}
			defer c.Close()

			sc := temporal.ScheduleConfig{
				ID:        s.cfg.Temporal.ScheduleID,
				Cron:      s.cfg.Temporal.Cron,
				TaskQueue: s.cfg.Temporal.TaskQueue,
				Input:     scheduleInput(s.cfg.Source, src),
			}
			h, err := temporal.EnsureSchedule(ctx, c.ScheduleClient(), sc, s.log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schedule %s: %q on %s\n", sc.ID, sc.Cron, sc.TaskQueue)

			if trigger {
				if err := temporal.Trigger(ctx, h); err != nil {
					return fmt.Errorf("trigger schedule %s: %w", sc.ID, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schedule %s triggered\n", sc.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cron, "cron", "", "cron expression (overrides TEMPORAL_CRON)")
	cmd.Flags().BoolVar(&trigger, "trigger", false, "start a run immediately after creating the schedule")
	cmd.Flags().StringVar(&src.bucket, "bucket", "", "source bucket for scheduled runs")
	cmd.Flags().StringVar(&src.subfolder, "subfolder", "", "object prefix for scheduled runs")
	cmd.Flags().StringVar(&src.localPath, "local-path", "", "landing directory for scheduled runs")
	return cmd
}

// scheduleInput layers configured source values and then flags over the
// deployment defaults.
func scheduleInput(cfg config.Source, flags sourceFlags) temporal.RunInput {
	in := temporal.DefaultRunInput()
	for _, layer := range []sourceFlags{
		{bucket: cfg.Bucket, subfolder: cfg.Subfolder, localPath: cfg.LocalPath},
		flags,
	} {
		if layer.bucket != "" {
			in.Bucket = layer.bucket
		}
		if layer.subfolder != "" {
			in.Subfolder = layer.subfolder
		}
		if layer.localPath != "" {
			in.LocalPath = layer.localPath
		}
	}
	return in
}
