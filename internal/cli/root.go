// Package cli implements the olympics command line.
package cli

import (
	"github.com/spf13/cobra"

	// register all backends with the storage factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "olympics/internal/storage/all"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	LogMode    string
}

// NewRootCommand creates the root command for the olympics CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "olympics",
		Short: "Olympic results ETL",
		Long: `Land Olympic athlete extracts from S3, reconcile them into regions,
athletes and event results, and upsert them into Postgres or SQLite.

Configuration comes from an optional config file, a .env file and the
environment, in increasing order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "optional YAML/JSON config file")
	cmd.PersistentFlags().StringVar(&opts.LogMode, "log-mode", "", "log mode (dev|prod), overrides LOG_MODE")

	// Add subcommands
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewProvisionCommand(opts))
	cmd.AddCommand(NewAnalyzeCommand(opts))
	cmd.AddCommand(NewWorkerCommand(opts))
	cmd.AddCommand(NewScheduleCommand(opts))

	return cmd
}
