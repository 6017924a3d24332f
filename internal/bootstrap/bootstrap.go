// Package bootstrap wires adapters into the use cases from a Config. Both
// binaries share it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	"simopsbot/db"
	"simopsbot/internal/adapter/journal/jsonl"
	metricsinmem "simopsbot/internal/adapter/metrics/inmemory"
	"simopsbot/internal/adapter/metrics/prom"
	"simopsbot/internal/adapter/model/standin"
	gormrepo "simopsbot/internal/adapter/repo/gorm"
	"simopsbot/internal/adapter/repo/memory"
	"simopsbot/internal/adapter/tools/simtools"
	"simopsbot/internal/app/agent"
	"simopsbot/internal/app/eval"
	"simopsbot/internal/app/ports"
	"simopsbot/internal/app/reliability"
	"simopsbot/internal/app/replay"
	"simopsbot/internal/config"
	"simopsbot/internal/domain/ops"
)

type App struct {
	Config  config.Config
	Run     agent.UseCase
	Replay  replay.UseCase
	Eval    eval.Runner
	Runs    ports.RunRepository
	KPI     *metricsinmem.Recorder
	Metrics *prom.Metrics
	// Backend is "postgres" or "memory".
	Backend string

	db *gorm.DB
}

// Options adjust wiring for callers that are not the long-running server.
type Options struct {
	// WithoutJournalFiles skips the per-run JSONL files even when a
	// journal dir is configured.
	WithoutJournalFiles bool
	Registry            *prometheus.Registry
}

func Build(ctx context.Context, cfg config.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, KPI: metricsinmem.NewRecorder()}

	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	a.Metrics = prom.New(reg)

	var (
		store ports.JournalStore
		tx    ports.TxManager
	)
	if cfg.Database.DSN != "" {
		gdb, err := gormrepo.OpenPostgres(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		applied, err := gormrepo.ApplyMigrations(ctx, gdb, migrationsFS(cfg.Database))
		if err != nil {
			closeDB(gdb)
			return nil, err
		}
		if len(applied) > 0 {
			logger.Info("migrations applied", "versions", applied)
		}
		a.db = gdb
		a.Backend = "postgres"
		store = gormrepo.NewJournalRepo(gdb)
		a.Runs = gormrepo.NewRunRepo(gdb)
		tx = gormrepo.NewTxManager(gdb)
	} else {
		mem := memory.NewStore()
		a.Backend = "memory"
		store = memory.NewJournalStore(mem)
		a.Runs = memory.NewRunRepo(mem)
	}

	var files ports.JournalFiles
	if cfg.Journal.Dir != "" && !opts.WithoutJournalFiles {
		files = jsonl.Dir{Root: cfg.Journal.Dir}
	}

	a.Run = agent.UseCase{
		Environments: simtools.Factory{Faults: cfg.Faults},
		Proposers:    standin.Factory{},
		Sinks:        []ports.JournalSink{store},
		Files:        files,
		Runs:         a.Runs,
		Tx:           tx,
		Metrics:      prom.Fanout{a.KPI, a.Metrics},
		Logger:       logger,
		Policy:       ops.DefaultPolicy(),
		Thresholds:   cfg.Verify,
		Budget:       cfg.Run.Budget,
		MaxAttempts:  cfg.Run.MaxAttempts,
		Backoff:      reliability.Backoff{BaseDelay: cfg.Run.BackoffBase},
	}
	a.Replay = replay.UseCase{Journal: store}
	a.Eval = eval.Runner{Agent: a.Run, Concurrency: cfg.Eval.Concurrency, Logger: logger}

	logger.Info("wired", "backend", a.Backend, "journal_dir", cfg.Journal.Dir, "profile", cfg.Run.Profile)
	return a, nil
}

// Close releases the database pool, if any.
func (a *App) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func migrationsFS(cfg config.DatabaseConfig) fs.FS {
	if cfg.MigrationsDir != "" {
		return os.DirFS(cfg.MigrationsDir)
	}
	return db.Migrations()
}

func closeDB(gdb *gorm.DB) {
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// ErrNoDatabase is returned by commands that need postgres when none is set.
var ErrNoDatabase = errors.New("no database configured")

// RequireDatabase fails unless the app runs against postgres.
func (a *App) RequireDatabase() error {
	if a.Backend != "postgres" {
		return fmt.Errorf("%w: set SIMOPS_DB_DSN", ErrNoDatabase)
	}
	return nil
}
