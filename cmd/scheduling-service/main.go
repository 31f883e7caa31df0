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

	"golang-stock-indicator/internal/scheduler/config"
	delivery "golang-stock-indicator/internal/scheduler/delivery/http"
	_ "golang-stock-indicator/internal/scheduler/docs"
	"golang-stock-indicator/internal/scheduler/repository"
	"golang-stock-indicator/internal/scheduler/service"
	"golang-stock-indicator/pkg/logger"
	"golang-stock-indicator/pkg/postgres"
	"golang-stock-indicator/pkg/redis"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	swagger "github.com/swaggo/echo-swagger"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the scheduling service and the read API",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Scheduling Service", logger.Field("name", cfg.App.Name))

	db, err := postgres.NewDB(postgres.Config{
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
	})
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	redisClient, err := redis.NewClient(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
	}
	defer redisClient.Close()

	// Initialize repositories
	jobRepo := repository.NewJobRepository(db.DB)
	scheduleRepo := repository.NewTaskScheduleRepository(db.DB)
	historyRepo := repository.NewTaskExecutionHistoryRepository(db.DB)
	marketRepo := repository.NewMarketRepository(db.DB)

	// Initialize services
	publisher := service.NewRedisTaskPublisher(redisClient.Client, cfg.Redis.StreamMaxLen)
	schedulerSvc := service.NewSchedulerService(scheduleRepo, historyRepo, publisher, appLogger, cfg.Scheduler.PollingInterval)
	jobSvc := service.NewJobService(jobRepo, historyRepo, publisher, appLogger)
	historySvc := service.NewExecutionHistoryService(historyRepo, appLogger)
	marketSvc := service.NewMarketService(cfg, marketRepo, appLogger)

	go schedulerSvc.Start(ctx)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	apiV1 := e.Group("/api/v1")
	jobsGroup := apiV1.Group("/jobs")
	delivery.NewJobHandler(jobSvc, appLogger).RegisterRoutes(jobsGroup)

	historyHandler := delivery.NewExecutionHistoryHandler(historySvc, appLogger)
	historyHandler.RegisterRoutes(apiV1.Group("/executions"))
	historyHandler.RegisterJobRoutes(jobsGroup)

	delivery.NewMarketHandler(marketSvc, appLogger).RegisterRoutes(apiV1.Group("/market"))

	e.GET("/swagger/*", swagger.WrapHandler)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop()
		}
	}()

	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

// @title Stock Indicator API
// @version 1.0
// @description Job scheduling and read access to the A-share indicator store.
// @BasePath /api/v1
func main() {
	rootCmd := &cobra.Command{Use: "scheduling-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-scheduler.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing scheduling-service CLI: %s\n", err)
		os.Exit(1)
	}
}
