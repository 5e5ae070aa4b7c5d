package cli

import (
	"fmt"
	"log/slog"

	"github.com/aevon-lab/review-history/internal/core/config"
	"github.com/aevon-lab/review-history/internal/core/mutation"
	"github.com/aevon-lab/review-history/internal/core/normalize"
	"github.com/aevon-lab/review-history/internal/core/storage"
	"github.com/aevon-lab/review-history/internal/core/storage/memory"
	"github.com/aevon-lab/review-history/internal/core/storage/postgres"
	"github.com/aevon-lab/review-history/internal/core/storage/sqlite"
	"github.com/aevon-lab/review-history/internal/core/versioning"
	"github.com/aevon-lab/review-history/internal/logging"
	"github.com/aevon-lab/review-history/internal/migrations"
	"github.com/aevon-lab/review-history/internal/pipeline"
	"github.com/aevon-lab/review-history/internal/server"
)

// app is the wired set of components shared by every subcommand.
type app struct {
	cfg    *config.Config
	store  storage.HistoryStore
	health server.HealthChecker
	runner *pipeline.Runner
	close  func() error
}

// bootstrap loads config, initializes logging and opens the configured store.
// The caller must call close.
func bootstrap(opts *RootOptions) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	logging.Init(opts.JSONLogs, logging.ParseLevel(cfg.Log.Level))
	slog.Info("[CLI] Loaded config",
		"path", opts.ConfigPath,
		"database", cfg.Database.Type,
		"tracked_fields", []string(cfg.Tracked),
		"mutation", cfg.Pipeline.Mutation.Enabled,
	)

	a := &app{cfg: cfg, close: func() error { return nil }}

	switch cfg.Database.Type {
	case "memory":
		slog.Warn("[CLI] Using in-memory store, history is lost on exit")
		a.store = memory.New()
	case "sqlite":
		st, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open sqlite store", err)
		}
		a.store = st
		a.health = st.DB()
		a.close = st.Close
	default:
		db, err := postgres.Open(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open database", err)
		}
		if err := migrations.RunMigrations(db, cfg.Database.AutoMigrate); err != nil {
			db.Close()
			return nil, WrapExitError(ExitCommandError, "failed to run database migrations", err)
		}
		adapter, err := postgres.NewAdapter(db)
		if err != nil {
			db.Close()
			return nil, WrapExitError(ExitCommandError, "failed to initialize history store", err)
		}
		a.store = adapter
		a.health = db
		a.close = adapter.Close
	}

	a.runner = pipeline.NewRunner(
		a.store,
		normalize.New(cfg.Pipeline.Fields, cfg.Pipeline.WorkerCount),
		versioning.NewEngine(cfg.Tracked),
		mutation.New(cfg.Pipeline.Mutation, cfg.Tracked),
		pipeline.Options{ExpireRetries: cfg.Pipeline.ExpireRetries},
	)
	return a, nil
}

func (a *app) shutdown() {
	if err := a.close(); err != nil {
		slog.Error("[CLI] Error closing store", "error", err)
	}
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
