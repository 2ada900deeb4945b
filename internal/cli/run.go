package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"olympics/internal/config"
	"olympics/internal/pipeline"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	var src sourceFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once",
		Long: `Download every CSV extract under the configured bucket and subfolder,
reconcile them and upsert regions, athletes and event_results.

The tables must already exist; see "olympics provision".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, rootOpts, &src)
		},
	}
	cmd.Flags().StringVar(&src.bucket, "bucket", "", "source bucket (overrides BUCKET_NAME)")
	cmd.Flags().StringVar(&src.subfolder, "subfolder", "", "object prefix (overrides SUBFOLDER)")
	cmd.Flags().StringVar(&src.localPath, "local-path", "", "landing directory (overrides LOCAL_PATH)")
	return cmd
}

func runPipeline(cmd *cobra.Command, opts *RootOptions, src *sourceFlags) error {
	s, err := openSession(opts, config.ScopeRun, src.apply)
	if err != nil {
		return err
	}
	defer s.close()

	ctx := cmd.Context()
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
	sum, err := ctrl.Run(ctx, pipeline.Params{
		Bucket:    s.cfg.Source.Bucket,
		Subfolder: s.cfg.Source.Subfolder,
		LocalPath: s.cfg.Source.LocalPath,
	})
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), sum)
	return nil
}

func printSummary(w io.Writer, sum pipeline.Summary) {
	fmt.Fprintf(w, "landed %d file(s) in %s\n", len(sum.Landed), sum.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "reconciled regions=%d athletes=%d event_results=%d unmatched=%d\n",
		sum.Reconcile.Regions, sum.Reconcile.Athletes, sum.Reconcile.EventResults, sum.Reconcile.Unmatched)
	for _, l := range sum.Loaded {
		fmt.Fprintf(w, "loaded %s rows=%d applied=%d\n", l.Table, l.Rows, l.Applied)
	}
}
