package cli

import (
	"github.com/spf13/cobra"

	"olympics/internal/analysis"
	"olympics/internal/config"
)

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Print the reporting queries over the loaded tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, config.ScopeStorage)
			if err != nil {
				return err
			}
			defer s.close()

			ctx := cmd.Context()
			repo, err := s.openRepo(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			report, err := analysis.Run(ctx, repo)
			if err != nil {
				return err
			}
			return report.WriteText(cmd.OutOrStdout())
		},
	}
}
