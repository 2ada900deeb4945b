package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"olympics/internal/config"
)

var scopes = map[string]config.Scope{
	"run":      config.ScopeRun,
	"storage":  config.ScopeStorage,
	"temporal": config.ScopeTemporal,
	"schedule": config.ScopeSchedule,
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var scope string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and exit",
		Long: `Load configuration and report every issue for the given scope.
Exits non-zero when any issue has error severity.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, ok := scopes[scope]
			if !ok {
				return fmt.Errorf("invalid scope %q: must be one of run, storage, temporal, schedule", scope)
			}
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}

			issues := config.Validate(*cfg, sc)
			out := cmd.OutOrStdout()
			for _, iss := range issues {
				fmt.Fprintln(out, iss.Error())
			}
			if err := config.Err(issues); err != nil {
				return err
			}
			fmt.Fprintln(out, "configuration is valid")
			return nil
		},
	}
	cmd.Flags().StringVar(&scope, "scope", "run", "what to validate for (run|storage|temporal|schedule)")
	return cmd
}
