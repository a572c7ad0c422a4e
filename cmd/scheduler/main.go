package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/subtrack/internal/app/scheduler"
	"github.com/magabrotheeeer/subtrack/internal/config"
	"github.com/magabrotheeeer/subtrack/internal/lib/sl"
)

func main() {
	once := flag.Bool("once", false, "run a single reminder sweep and exit")
	flag.Parse()

	cfg := config.MustLoad()
	logger := sl.New(cfg.Env, os.Stdout)
	logger.Info("starting scheduler", slog.String("env", cfg.Env), slog.Bool("once", *once))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := scheduler.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize scheduler", sl.Err(err))
		os.Exit(1)
	}

	if *once {
		err = app.RunOnce(ctx)
	} else {
		err = app.Run(ctx)
	}
	if err != nil {
		logger.Error("scheduler stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("scheduler stopped")
}
