package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/studentvault/internal/logging"
	"github.com/dmitrijs2005/studentvault/internal/server"
	"github.com/dmitrijs2005/studentvault/internal/server/config"
)

func main() {

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.NewJSONLogger(os.Stdout, cfg.LogLevel)

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "startup failed", "error", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		os.Exit(1)
	}

}
