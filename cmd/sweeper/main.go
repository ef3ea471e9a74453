package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"schoolhub-backend/infrastructure/config"
	"schoolhub-backend/infrastructure/di"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// The sweeper daemon triggers the overdue sweep on a schedule. The engine
// itself is trigger-agnostic; running this alongside manual HTTP triggers is
// safe because the overdue transition is guarded by persisted state.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	logger := container.Logger

	container.Dispatcher.Start(ctx)

	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.SweepSchedule, func() {
		started := time.Now()
		summary, err := container.SweepEngine.RunSweep(ctx, time.Now())
		if err != nil {
			logger.Error("Scheduled sweep failed", zap.Error(err))
			return
		}

		container.Metrics.RecordSweep(ctx, summary.NewlyOverdue, summary.DueToday, summary.DueSoon, time.Since(started))
		logger.Info("Scheduled sweep finished",
			zap.Time("checkedAt", summary.CheckedAt),
			zap.Int("newlyOverdue", summary.NewlyOverdue),
			zap.Int("dueToday", summary.DueToday),
			zap.Int("dueSoon", summary.DueSoon),
		)
	})
	if err != nil {
		logger.Fatal("Invalid sweep schedule",
			zap.String("schedule", cfg.SweepSchedule),
			zap.Error(err),
		)
	}

	scheduler.Start()
	logger.Info("Sweeper started", zap.String("schedule", cfg.SweepSchedule))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down sweeper...")

	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	container.Dispatcher.Stop()

	if err := logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	log.Println("Sweeper stopped")
}
