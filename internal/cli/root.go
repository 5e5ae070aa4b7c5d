package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	JSONLogs   bool
}

// NewRootCommand creates the root command for the revhist CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "revhist",
		Short: "revhist - temporal history of product reviews",
		Long: `Maintains a versioned (type-2) history of product reviews.

Each run normalizes a raw review batch, collapses duplicates, derives a
business key per review and appends a new version only when a tracked
attribute changed. Superseded versions are closed in a second phase.`,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "revhist.yaml", "path to configuration file")
	cmd.PersistentFlags().BoolVar(&opts.JSONLogs, "json-logs", false, "emit logs as JSON")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewExpireCommand(opts))

	return cmd
}
