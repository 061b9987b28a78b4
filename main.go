package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pathakanu/plantMemo/internal/api"
	"github.com/pathakanu/plantMemo/internal/bot"
	"github.com/pathakanu/plantMemo/internal/config"
	"github.com/pathakanu/plantMemo/internal/database"
	"github.com/pathakanu/plantMemo/internal/logging"
	myopenai "github.com/pathakanu/plantMemo/internal/openai"
	"github.com/pathakanu/plantMemo/internal/plants"
	"github.com/pathakanu/plantMemo/internal/redisstore"
	"github.com/pathakanu/plantMemo/internal/reminder"
	"github.com/pathakanu/plantMemo/internal/twilio"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.New(cfg.DatabaseURL, cfg.SQLitePath, logger)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}

	ctx := context.Background()
	store, closeStore := reminderStore(ctx, cfg, db, logger)
	defer closeStore()

	openAIClient := myopenai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	cache, err := reminder.New(ctx, reminder.Options{
		Store:           store,
		Generator:       openAIClient,
		Location:        cfg.LocalTimezone,
		NameMentionRate: cfg.NameMentionRate,
		Logger:          logger.Named("reminder"),
	})
	if err != nil {
		logger.Fatal("reminder cache init failed", zap.Error(err))
	}

	plantService := plants.NewService(database.NewPlantStore(db), cache, cfg.LocalTimezone, logger.Named("plants"))
	twilioClient := twilio.New(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppNumber, logger.Named("twilio"))

	plantBot := bot.New(cfg, plantService, cache, openAIClient, twilioClient, logger.Named("bot"))
	if err := plantBot.StartScheduler(); err != nil {
		logger.Fatal("scheduler start", zap.Error(err))
	}

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: api.NewRouter(api.Options{
			Plants:  plantService,
			Cache:   cache,
			Logger:  logger.Named("api"),
			Webhook: plantBot.Handler(),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	waitForShutdown(server, plantBot, logger)
}

// reminderStore picks the durable mirror for the reminder cache.
func reminderStore(ctx context.Context, cfg *config.Config, db *gorm.DB, logger *zap.Logger) (reminder.Store, func()) {
	if cfg.ReminderCache != config.CacheBackendRedis {
		return database.NewReminderStore(db), func() {}
	}

	client, err := redisstore.Connect(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn("redis unavailable, keeping reminder cache in the database", zap.Error(err))
		return database.NewReminderStore(db), func() {}
	}
	logger.Info("reminder cache mirrored to redis")
	return redisstore.New(client, ""), func() { _ = client.Close() }
}

func waitForShutdown(server *http.Server, plantBot *bot.Bot, logger *zap.Logger) {
	stopCtx := make(chan os.Signal, 1)
	signal.Notify(stopCtx, syscall.SIGINT, syscall.SIGTERM)
	<-stopCtx
	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("server shutdown error", zap.Error(err))
	}
	plantBot.StopScheduler()
}
