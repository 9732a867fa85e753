package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/profile-service/adapters/event"
	auditUC "github.com/khoahotran/profile-service/internal/application/usecase/audit"
	"github.com/khoahotran/profile-service/internal/config"
	"github.com/khoahotran/profile-service/pkg/logger"
)

func main() {
	// Configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()
	appLogger.Info("Starting Profile Audit Worker...")

	if len(cfg.Kafka.Brokers) == 0 {
		appLogger.Fatal("config Kafka brokers not found", nil)
	}

	recordEventUC := auditUC.NewRecordProfileEventUseCase(appLogger)

	// Kafka Consumer
	profileConsumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    event.TopicProfileEvents,
		GroupID:  cfg.Kafka.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer profileConsumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appLogger.Info("Worker listening", zap.String("topic", event.TopicProfileEvents), zap.String("group_id", cfg.Kafka.GroupID))

	for {
		msg, err := profileConsumer.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				appLogger.Info("Worker stopped")
				return
			}
			appLogger.Error("Failed to read message from Kafka", err)
			continue
		}

		evt, err := event.DecodeProfileEvent(msg)
		if err != nil {
			appLogger.Warn("Skipping undecodable message", zap.Int64("offset", msg.Offset), zap.Error(err))
			commitMessage(ctx, profileConsumer, msg, appLogger)
			continue
		}

		if err := recordEventUC.Execute(ctx, evt); err != nil {
			appLogger.Warn("Skipping invalid profile event", zap.Int64("offset", msg.Offset), zap.Error(err))
		}

		commitMessage(ctx, profileConsumer, msg, appLogger)
	}
}

func commitMessage(ctx context.Context, consumer *kafka.Reader, msg kafka.Message, appLogger logger.Logger) {
	if err := consumer.CommitMessages(ctx, msg); err != nil {
		appLogger.Error("Failed to commit message", err, zap.Int64("offset", msg.Offset))
	}
}
