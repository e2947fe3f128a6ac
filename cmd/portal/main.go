package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/carelink/internal/client/config"
	"github.com/dmitrijs2005/carelink/internal/logging"
	"github.com/dmitrijs2005/carelink/internal/portal"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger := logging.New(cfg.Environment, cfg.LogLevel, os.Stdout)
	defer logger.Sync()

	app, err := portal.NewApp(cfg, logger)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "portal stopped", "error", err)
	}

}
