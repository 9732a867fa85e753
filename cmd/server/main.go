package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khoahotran/profile-service/adapters/event"
	httpAdapter "github.com/khoahotran/profile-service/adapters/http"
	"github.com/khoahotran/profile-service/adapters/persistence"
	"github.com/khoahotran/profile-service/internal/application/service"
	profileUC "github.com/khoahotran/profile-service/internal/application/usecase/profile"
	"github.com/khoahotran/profile-service/internal/config"
	"github.com/khoahotran/profile-service/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()
	appLogger.Info("Start Profile API Server...", zap.String("env", cfg.App.Env))

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Event publisher
	var publisher service.EventPublisher = event.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaClient, err := event.NewKafkaProducerClient(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("cannot init Kafka", err)
		}
		defer kafkaClient.Close()
		publisher = kafkaClient
	} else {
		appLogger.Warn("KAFKA_BROKERS not set, profile events are disabled")
	}

	// Rate limiter
	var limiter service.RateLimiter
	if cfg.Redis.Addr != "" {
		redisClient, err := persistence.NewRedisClient(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("cannot connect Redis", err)
		}
		defer redisClient.Close()
		limiter = persistence.NewRedisRateLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window)
	} else {
		appLogger.Warn("REDIS_ADDR not set, rate limiting is disabled")
	}

	// Repositories
	profileRepo := persistence.NewMemoryProfileRepo(appLogger)

	// Use Cases
	profileUseCase := profileUC.NewProfileUseCase(profileRepo, publisher, appLogger)

	// HTTP Handlers
	profileHandler := httpAdapter.NewProfileHandler(profileUseCase, appLogger)

	router := httpAdapter.NewRouter(httpAdapter.RouterDeps{
		ProfileHandler: profileHandler,
		Logger:         appLogger,
		RateLimiter:    limiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		appLogger.Info("Server running", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Cannot run server", err)
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", err)
	}
	if err := profileUseCase.Close(shutdownCtx); err != nil {
		appLogger.Error("Pending profile events were not published", err)
	}
}
