package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aevon-lab/review-history/internal/ingestion"
	"github.com/aevon-lab/review-history/internal/pipeline"
	"github.com/aevon-lab/review-history/internal/projection"
	"github.com/aevon-lab/review-history/internal/server"
	"github.com/aevon-lab/review-history/internal/source"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the optional run scheduler",
		Long: `Start the HTTP API for run triggers and history queries.

When scheduler.enabled is set, an incremental run over scheduler.source_path
is started on every scheduler.interval.

Example:
  revhist serve --config revhist.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, cmd)
		},
	}
}

func runServe(opts *RootOptions, cmd *cobra.Command) error {
	a, err := bootstrap(opts)
	if err != nil {
		return err
	}
	defer a.shutdown()
	cfg := a.cfg

	ingestionSvc := ingestion.NewService(a.runner, a.store, cfg.Server.MaxBodySizeMB)
	projectionSvc := projection.NewService(a.store)

	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), a.health, cfg.Server.Mode)
	ingestionSvc.RegisterRoutes(srv.Engine)
	projectionSvc.RegisterRoutes(srv.Engine)

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	if cfg.Scheduler.Enabled {
		scheduler := pipeline.NewScheduler(
			cfg.Scheduler.EffectiveInterval(),
			a.runner,
			source.NewFileSource(cfg.Scheduler.SourcePath),
		)
		go func() {
			if err := scheduler.Start(ctx); err != nil {
				slog.Error("[CLI] Scheduler stopped with error", "error", err)
			}
		}()
	} else {
		slog.Info("[CLI] Run scheduler disabled by config")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("[CLI] Signal received, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	// Blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		return WrapExitError(ExitFailure, "server stopped with error", err)
	}

	slog.Info("[CLI] Shutdown complete")
	return nil
}
