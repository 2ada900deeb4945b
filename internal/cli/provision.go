package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"olympics/internal/config"
	"olympics/internal/schema"
	"olympics/internal/storage"
)

// NewProvisionCommand creates the provision command.
func NewProvisionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Create the destination tables if they do not exist",
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

			tables := schema.All()
			if err := storage.Provision(ctx, s.cfg.Storage.Kind, repo, tables); err != nil {
				return err
			}
			for _, t := range tables {
				fmt.Fprintf(cmd.OutOrStdout(), "table %s ready\n", t.Name)
			}
			s.log.Info("tables provisioned", "storage", s.cfg.Storage.Kind, "tables", len(tables))
			return nil
		},
	}
}
