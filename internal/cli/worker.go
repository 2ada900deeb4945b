package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"olympics/internal/config"
	"olympics/internal/orchestrate/temporal"
)

// NewWorkerCommand creates the worker command.
func NewWorkerCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Serve the pipeline workflow on Temporal until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, config.ScopeTemporal)
			if err != nil {
				return err
			}
			defer s.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			defer s.startMetrics()()

			repo, err := s.openRepo(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			ctrl, err := s.controller(ctx, repo)
			if err != nil {
				return err
			}

			c, err := temporal.Dial(ctx, s.cfg.Temporal, temporal.DefaultDialOptions, s.log)
			if err != nil {
				return err
			}
			defer c.Close()

			w, err := temporal.NewWorker(c, s.cfg.Temporal.TaskQueue, &temporal.Activities{Runner: ctrl, Log: s.log})
			if err != nil {
				return err
			}
			s.log.Info("worker started", "task_queue", s.cfg.Temporal.TaskQueue, "namespace", s.cfg.Temporal.Namespace)
			return temporal.Serve(ctx, w)
		},
	}
}
