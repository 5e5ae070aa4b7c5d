package cli

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	v1 "github.com/aevon-lab/review-history/internal/api/v1"
	"github.com/aevon-lab/review-history/internal/source"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Mode  string
	Input string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Apply one review batch to the history",
		Long: `Apply one review batch to the history and print the run report as JSON.

seed rebuilds the history from the batch. incremental appends new versions
for changed reviews and closes the versions they supersede. On an empty
history an incremental run behaves like seed.

Example:
  revhist run --mode seed --input reviews.jsonl
  revhist run --mode incremental --input reviews.jsonl`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Mode, "mode", "m", string(v1.ModeIncremental), "run mode (seed|incremental)")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "path to a JSON lines or JSON array file (required)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runBatch(opts *RunOptions, cmd *cobra.Command) error {
	mode, err := v1.ParseRunMode(opts.Mode)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --mode", err)
	}

	a, err := bootstrap(opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.shutdown()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	raws, err := source.NewFileSource(opts.Input).Fetch(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read input", err)
	}

	report, runErr := a.runner.Run(ctx, mode, raws)
	if err := writeReport(cmd.OutOrStdout(), report); err != nil {
		return WrapExitError(ExitFailure, "failed to write run report", err)
	}
	if runErr != nil {
		return WrapExitError(ExitFailure, "run failed", runErr)
	}
	return nil
}

func writeReport(w io.Writer, report v1.RunReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
