package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewExpireCommand creates the expire command.
func NewExpireCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "expire",
		Short: "Close superseded versions left current by an interrupted run",
		Long: `Run the expire phase alone.

A run whose expire phase failed leaves more than one current version for
the changed reviews. This command closes every current version that has a
newer current version of the same review. It is safe to repeat.

Example:
  revhist expire --config revhist.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(rootOpts)
			if err != nil {
				return err
			}
			defer a.shutdown()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			report, repairErr := a.runner.Repair(ctx)
			if err := writeReport(cmd.OutOrStdout(), report); err != nil {
				return WrapExitError(ExitFailure, "failed to write run report", err)
			}
			if repairErr != nil {
				return WrapExitError(ExitFailure, "expire failed", repairErr)
			}
			return nil
		},
	}
}
