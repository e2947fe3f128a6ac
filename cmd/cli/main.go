package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/carelink/internal/client/cli"
	"github.com/dmitrijs2005/carelink/internal/client/config"
	"github.com/dmitrijs2005/carelink/internal/logging"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger := logging.New(cfg.Environment, cfg.LogLevel, os.Stderr)
	defer logger.Sync()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "cli stopped", "error", err)
	}

}
