package cmd

import (
	"workshop-sync/config"
	"workshop-sync/db"
	"workshop-sync/logger"
	"workshop-sync/steam"
	"workshop-sync/workshop"

	"go.uber.org/zap"
)

// bootstrap handles shared initialization logic for commands.
func bootstrap(path string) (config.Config, *workshop.Engine) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		logger.Log.Fatalw("Failed to load configuration", zap.Error(err))
	}

	store, err := db.Open(cfg.DatabasePath)
	if err != nil {
		logger.Log.Fatalw("Failed to open database", zap.String("path", cfg.DatabasePath), zap.Error(err))
	}
	logger.Log.Infow("Database initialized", zap.String("path", cfg.DatabasePath))

	client, err := steam.NewClient(cfg)
	if err != nil {
		logger.Log.Fatalw("Failed to create Steam client", zap.Error(err))
	}

	return cfg, workshop.NewEngine(cfg, store, client, logger.Log)
}
