package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"workdays/internal/config"
	"workdays/internal/handler"
	"workdays/internal/repository"
	"workdays/internal/service"
	"workdays/internal/slot"
	"workdays/pkg/holidays"
	"workdays/pkg/telegram"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.Info("Initializing config...")
	cfg := config.GetBotConfig()
	logrus.SetLevel(cfg.Level())
	logrus.Info("Config initialized...")

	slots, closeSlots := openSlots(cfg)
	defer closeSlots()

	// Хранилище выбирается один раз; при сбое движка используется запасное
	repo := repository.InitStorage(context.Background(), slots, cfg.StorageEngine, nil)

	var nonWorkingDays []holidays.Holiday
	if cfg.HolidaysFile != "" {
		days, err := holidays.ParseFile(cfg.HolidaysFile)
		if err != nil {
			logrus.WithError(err).Warn("Failed to load holidays, counting plain weekdays")
		} else {
			nonWorkingDays = days
			logrus.Infof("Loaded %d non-working days from %s", len(days), cfg.HolidaysFile)
		}
	}

	attendanceService := service.NewAttendanceService(repo, slots, nonWorkingDays, cfg.GoalPercent)

	client, err := telegram.NewClient(cfg.TelegramToken, cfg.Level() >= logrus.DebugLevel)
	if err != nil {
		logrus.Fatal("Failed to create Telegram client:", err)
	}

	logrus.Infof("Authorized on account %s", client.Bot.Self.UserName)

	botHandler := handler.NewHandler(client.Bot, attendanceService, cfg)

	updates := client.Bot.GetUpdatesChan(client.UpdateConfig)

	// Обработка сигналов для graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go botHandler.HandleUpdates(updates)

	logrus.Info("Bot started. Press Ctrl+C to stop.")
	<-stop

	client.Bot.StopReceivingUpdates()
	logrus.Info("Bot stopped gracefully")
}

func openSlots(cfg *config.BotConfig) (slot.Store, func()) {
	if cfg.Slot.Backend == "redis" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		logrus.Infof("Using redis slots at %s", cfg.Redis.Addr)
		return slot.NewRedisStore(rdb, cfg.Redis.Prefix), func() {
			if err := rdb.Close(); err != nil {
				logrus.Infof("Error closing redis: %v", err)
			}
		}
	}

	store, err := slot.NewFileStore(cfg.Slot.Dir, cfg.Slot.QuotaBytes)
	if err != nil {
		logrus.Fatal("Failed to open slot directory:", err)
	}
	logrus.Infof("Using file slots in %s", cfg.Slot.Dir)
	return store, func() {}
}
