package main

import (
	"context"
	"os"

	"expensetracker/internal/cli"
	apphttp "expensetracker/internal/http"
	"expensetracker/internal/log"
	"expensetracker/internal/presenter"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	store := cli.InitStore(ctx, logger, cfg)
	defer store.Close()

	opts := []presenter.Option{presenter.WithLogger(logger)}
	if publisher := cli.InitPublisher(logger, cfg); publisher != nil {
		defer publisher.Close()
		opts = append(opts, presenter.WithPublisher(publisher))
	}

	p := presenter.New(store, opts...)
	if err := p.Reload(ctx); err != nil {
		logger.Warn("Initial load failed", log.FieldError, err)
	}

	srv := apphttp.NewServer(cfg.Addr(), p, store, logger)
	logger.Info("Open the expense tracker in a browser",
		log.FieldOperation, log.OpStartup,
		"url", "http://"+cfg.Addr()+"/")

	if err := cli.Serve(ctx, logger, &srv.Server, cfg.ShutdownTimeout); err != nil {
		logger.Error("Server error", log.FieldError, err)
		store.Close()
		os.Exit(1)
	}
	logger.Info("Expense tracker stopped")
}
