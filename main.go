package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/lms-service/internal/ai"
	"github.com/SAP-F-2025/lms-service/internal/config"
	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/handlers"
	"github.com/SAP-F-2025/lms-service/internal/repositories/casdoor"
	"github.com/SAP-F-2025/lms-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/storage"
	"github.com/SAP-F-2025/lms-service/internal/utils"
	"github.com/SAP-F-2025/lms-service/internal/validator"
	"github.com/SAP-F-2025/lms-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	ctx := context.Background()

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			log.Printf("Warning: Failed to initialize Redis: %v", err)
		}
	}

	// Initialize repositories
	repoConfig := postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
		CasdoorConfig: casdoor.CasdoorConfig{
			Endpoint:         cfg.Casdoor.Endpoint,
			ClientID:         cfg.Casdoor.ClientID,
			ClientSecret:     cfg.Casdoor.ClientSecret,
			Certificate:      cfg.Casdoor.Cert,
			OrganizationName: cfg.Casdoor.Organization,
			ApplicationName:  cfg.Casdoor.Application,
		},
	}
	repoManager := postgres.NewRepositoryManager(repoConfig)
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}

	// Initialize validator
	validator := validator.New()

	// Initialize AI clients
	aiClient, err := ai.NewGeminiClient(ctx, cfg.AI.APIKey, cfg.AI.Model, logger)
	if err != nil {
		log.Fatalf("Failed to initialize AI client: %v", err)
	}
	runner := ai.NewSandboxClient(
		cfg.Sandbox.BaseURL,
		time.Duration(cfg.Sandbox.PollInterval)*time.Millisecond,
		cfg.Sandbox.MaxPolls,
		logger,
	)

	// Initialize object storage
	storageProvider, err := storage.NewProvider(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	if minioProvider, ok := storageProvider.(*storage.MinioProvider); ok {
		if err := minioProvider.EnsureBucket(ctx); err != nil {
			log.Fatalf("Failed to ensure storage bucket: %v", err)
		}
	}

	// Initialize the score event pipeline. Kafka when brokers are configured,
	// an in-process pubsub otherwise.
	var (
		publisher  message.Publisher
		subscriber message.Subscriber
	)
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err = events.NewKafkaPublisher(cfg.Kafka.Brokers)
		if err != nil {
			log.Fatalf("Failed to initialize Kafka publisher: %v", err)
		}
		subscriber, err = events.NewKafkaSubscriber(cfg.Kafka.Brokers, "lms-service")
		if err != nil {
			log.Fatalf("Failed to initialize Kafka subscriber: %v", err)
		}
	} else {
		pubsub := events.NewGoChannelPubSub()
		publisher = pubsub
		subscriber = pubsub
	}
	eventPublisher := events.NewWatermillPublisher(publisher, logger)

	// Initialize services
	serviceManager := services.NewDefaultServiceManager(db, repoManager.GetRepository(), logger, validator, services.ServiceManagerDeps{
		AI:        aiClient,
		Runner:    runner,
		Storage:   storageProvider,
		Publisher: eventPublisher,
	})
	if err := serviceManager.Initialize(ctx); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Score events refresh the enrollment totals asynchronously.
	err = events.SubscribeScoreComputed(ctx, subscriber, func(ctx context.Context, event events.ScoreComputed) error {
		return serviceManager.Score().HandleScoreComputed(ctx, event.AssessmentID, event.EnrollmentID)
	}, logger)
	if err != nil {
		log.Fatalf("Failed to subscribe to score events: %v", err)
	}

	// Initialize handlers
	handlerManager := handlers.NewHandlerManager(serviceManager, validator, logger, cfg.Casdoor, repoManager.GetRepository().User())

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, logger)
	handlerManager.SetupRoutes(router)

	// Create HTTP server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Shutdown services (closes the event publisher too)
	if err := serviceManager.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown services: %v", err)
	}

	if err := subscriber.Close(); err != nil {
		log.Printf("Failed to close event subscriber: %v", err)
	}

	// Close database connection
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	// Close Redis connection
	if redisClient != nil {
		redisClient.Close()
	}

	logger.Info("Server exited")
}
