package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rakuworks/pdbot/pkg/admin"
	"github.com/rakuworks/pdbot/pkg/ai"
	"github.com/rakuworks/pdbot/pkg/bot"
	"github.com/rakuworks/pdbot/pkg/config"
	"github.com/rakuworks/pdbot/pkg/logger"
	"github.com/rakuworks/pdbot/pkg/pdb"
	"github.com/rakuworks/pdbot/pkg/stream"
	"github.com/rakuworks/pdbot/pkg/trivia"
	"github.com/rakuworks/pdbot/pkg/usage"
)

const configPath = "config.json"

func main() {
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.ErrorCF("main", "Failed to load config", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	if cfg.Logging.FileEnabled {
		if err := logger.EnableFileLogging(config.ExpandPath(cfg.Logging.FilePath), cfg.Logging.MaxAgeDays); err != nil {
			logger.WarnCF("main", "File logging unavailable", map[string]interface{}{"error": err.Error()})
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPath := config.ExpandPath(cfg.Database.Path)
	store, err := admin.OpenSQLiteStore(dbPath)
	if err != nil {
		logger.ErrorCF("main", "Failed to open admin store", map[string]interface{}{
			"path":  dbPath,
			"error": err.Error(),
		})
		os.Exit(1)
	}
	defer store.Close()

	pdbClient := pdb.NewClient(cfg.PDB)
	if err := bot.Authenticate(ctx, cfg, pdbClient); err != nil {
		logger.ErrorCF("main", "Authentication failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	usageStore := usage.NewStore(config.ExpandPath("~/.pdbot"))
	aiClient := ai.NewClient(cfg.AI, usageStore)
	triviaClient := trivia.NewClient(cfg.Trivia.BaseURL)
	chatClient := stream.NewClient(cfg.Stream.BaseURL, cfg.Stream.WSURL)
	policy := admin.NewPolicy(store)

	client := bot.New(cfg, pdbClient, chatClient, policy, aiClient, triviaClient, usageStore)
	if err := client.Start(ctx); err != nil {
		logger.ErrorCF("main", "Failed to start bot", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	<-ctx.Done()
	logger.InfoC("main", "Shutting down")
	client.Close()
}
