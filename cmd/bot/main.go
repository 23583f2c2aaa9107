package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/devfahim/levelbot/internal/bot"
	"github.com/devfahim/levelbot/internal/command"
	"github.com/devfahim/levelbot/internal/events"
	"github.com/devfahim/levelbot/internal/storage"
	"github.com/devfahim/levelbot/pkg/config"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", "config.yaml"))
	}

	// Initialize storage
	var store storage.Storage
	switch cfg.Database.Driver {
	case "memory":
		logger.Info("Using in-memory storage")
		store = storage.NewMemoryStorage()
	case "postgres":
		logger.Info("Using PostgreSQL storage")
		store, err = storage.NewPostgresStorage(storage.DatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
	default:
		logger.Info("Using SQLite storage", zap.String("path", cfg.Database.Path))
		store, err = storage.OpenSQLite(cfg.Database.Path)
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
	}
	defer store.Close()

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}
	transport := command.NewTelegramTransport(api, logger)

	// Static command table; registration order is match precedence.
	registry := command.NewDefaultRegistry(store, logger, cfg.Bot.Prefix, cfg.Bot.Admins)

	dispatcher := bot.NewDispatcher(bot.DispatcherDeps{
		Store:        store,
		Registry:     registry,
		Transport:    transport,
		Cooldowns:    bot.NewCooldownTracker(),
		Prefixes:     bot.NewPrefixResolver(store, cfg.Bot.Prefix, logger),
		Admins:       cfg.Bot.Admins,
		Logger:       logger,
		OnNewMembers: &events.NewMemberGreeter{Logger: logger},
		OnLeftMember: &events.LeftMemberNotifier{Logger: logger},
		Fallback:     &events.MediaFallback{Logger: logger},
	})

	b := bot.New(api, transport, registry, dispatcher, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b.NotifyRestart()

	if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("Bot error", zap.Error(err))
	}
}
