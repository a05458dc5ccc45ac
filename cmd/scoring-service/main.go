package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"prediction-scoreboard/internal/scoring/config"
	"prediction-scoreboard/internal/scoring/delivery/consumer"
	delivery "prediction-scoreboard/internal/scoring/delivery/http"
	"prediction-scoreboard/internal/scoring/repository"
	"prediction-scoreboard/internal/scoring/service"
	"prediction-scoreboard/pkg/common"
	"prediction-scoreboard/pkg/logger"
	"prediction-scoreboard/pkg/postgres"
	"prediction-scoreboard/pkg/redis"
	"prediction-scoreboard/pkg/telegram"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the prediction scoring service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Scoring Service", logger.Field("name", cfg.App.Name))

	// Initialize database
	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Initialize Redis
	redisCfg := redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}
	redisClient, err := redis.NewClient(redisCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
	}
	defer redisClient.Close()

	// Create the consumer group if it doesn't exist
	// MKSTREAM creates the stream if it doesn't exist
	if err := redisClient.Client.XGroupCreateMkStream(context.Background(), common.RedisStreamPredictionResolution, common.RedisStreamGroup, "0").Err(); err != nil {
		if err.Error() != "BUSYGROUP Consumer Group name already exists" {
			appLogger.Fatal("Failed to create consumer group", logger.ErrorField(err))
		}
	}

	// Initialize notifier
	var notifier telegram.Notifier = telegram.NewNoopNotifier()
	if cfg.Telegram.BotToken != "" {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Fatal("Failed to initialize Telegram notifier", logger.ErrorField(err))
		}
	}

	// Initialize repositories
	predictionRepo := repository.NewPredictionRepository(db.DB)
	statsRepo := repository.NewStatsRepository(db.DB)
	marketDataRepo := repository.NewMarketDataRepository(db.DB)
	userRepo := repository.NewUserRepository(db.DB)
	scriptRepo := repository.NewScriptRepository(db.DB)

	// Initialize services
	resolver := service.NewOutcomeResolver(cfg, marketDataRepo)
	scoringSvc := service.NewScoringService(predictionRepo, userRepo, scriptRepo, resolver, appLogger)
	leaderboardSvc := service.NewLeaderboardService(statsRepo, userRepo, cfg, appLogger)
	dashboardSvc := service.NewDashboardService(statsRepo, predictionRepo, scriptRepo, leaderboardSvc, cfg, appLogger)
	sweepSvc := service.NewSweepService(predictionRepo, redisClient.Client, notifier, cfg, appLogger)
	resolutionSvc := service.NewResolutionConsumerService(cfg, redisClient.Client, scoringSvc, appLogger)

	// Start sweep loop and stream consumer
	go sweepSvc.Start(ctx)
	redisConsumer := consumer.NewRedisConsumer(cfg, resolutionSvc, appLogger)
	redisConsumer.Start(ctx)

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true

	// Initialize handlers and routes
	apiV1 := e.Group("/api/v1")

	predictionHandler := delivery.NewPredictionHandler(scoringSvc, sweepSvc, appLogger)
	predictionHandler.RegisterRoutes(apiV1.Group("/predictions"))
	predictionHandler.RegisterSweepRoutes(apiV1.Group("/sweep"))

	leaderboardHandler := delivery.NewLeaderboardHandler(leaderboardSvc, appLogger)
	leaderboardHandler.RegisterRoutes(apiV1.Group("/leaderboard"))

	dashboardHandler := delivery.NewDashboardHandler(dashboardSvc, appLogger)
	dashboardHandler.RegisterRoutes(apiV1.Group("/users"))

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop() // trigger shutdown
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	redisConsumer.Stop()

	// Gracefully shutdown the server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

func main() {
	rootCmd := &cobra.Command{Use: "scoring-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-scoring.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing scoring-service CLI: %s\n", err)
		os.Exit(1)
	}
}
