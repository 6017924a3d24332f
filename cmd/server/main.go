package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/joho/godotenv"

	httpadapter "simopsbot/internal/adapter/http"
	"simopsbot/internal/bootstrap"
	"simopsbot/internal/config"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("SIMOPS_CONFIG"), "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "simops-server: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	app, err := bootstrap.Build(context.Background(), cfg, logger, bootstrap.Options{})
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("close database", "error", err)
		}
	}()

	h := newHandler(app)
	s := server.Default(server.WithHostPorts(cfg.Server.Addr))
	h.RegisterRoutes(s)

	logger.Info("simops server listening", "addr", cfg.Server.Addr, "backend", app.Backend, "profile", cfg.Run.Profile)
	s.Spin()
}

func newLogger(cfg config.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

func newHandler(app *bootstrap.App) httpadapter.Handler {
	return httpadapter.Handler{
		RunUC:          app.Run,
		ReplayUC:       app.Replay,
		EvalUC:         app.Eval,
		Runs:           app.Runs,
		KPI:            app.KPI,
		Metrics:        app.Metrics.Handler(),
		EvalDir:        evalDir(app.Config),
		AllowOrigin:    app.Config.Server.AllowOrigin,
		DefaultProfile: app.Config.Run.Profile,
	}
}

// evalDir keeps eval outputs next to the run journals unless configured.
func evalDir(cfg config.Config) string {
	if cfg.Eval.OutDir != "" {
		return cfg.Eval.OutDir
	}
	if cfg.Journal.Dir == "" {
		return ""
	}
	return filepath.Join(cfg.Journal.Dir, "evals")
}
