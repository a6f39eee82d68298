package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/astwrks/assetwork-ai-web-sub001/pkg/config"
	"github.com/astwrks/assetwork-ai-web-sub001/pkg/db"
	"github.com/astwrks/assetwork-ai-web-sub001/pkg/utils"
)

func main() {
	utils.InitLogger()
	logger := utils.GetLogger()

	if _, err := config.EnsureDefaultConfig(); err != nil {
		logger.Error("failed to ensure default config", "error", err)
		os.Exit(1)
	}

	cfg, path, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "path", path, "error", err)
		os.Exit(1)
	}
	logger.Info("config loaded", "path", path)

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		logger.Error("failed to resolve database path", "error", err)
		os.Exit(1)
	}
	database, err := db.Open(dbPath)
	if err != nil {
		logger.Error("failed to open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	if err := db.AutoMigrate(database); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := NewServer(cfg, database)
	if err := server.Start(ctx); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
