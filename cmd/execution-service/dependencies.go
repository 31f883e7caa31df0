package main

import (
	"fmt"

	"golang-stock-indicator/internal/executor/config"
	"golang-stock-indicator/internal/executor/repository"
	"golang-stock-indicator/internal/executor/service"
	"golang-stock-indicator/internal/executor/strategy"
	"golang-stock-indicator/pkg/logger"
	"golang-stock-indicator/pkg/postgres"
	"golang-stock-indicator/pkg/redis"
	"golang-stock-indicator/pkg/telegram"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// dependencies holds the stores and services shared by every command. The database is
// opened for the postgres backend and whenever jobs are involved; Redis is opened whenever
// a host is configured, otherwise the run lock is process-local.
type dependencies struct {
	db          *postgres.DB
	redisClient *redis.Client

	provider   repository.MarketDataRepository
	stocksRepo repository.StocksRepository
	notifier   telegram.Notifier

	pipeline    service.PipelineService
	screening   service.ScreeningService
	marketStats service.MarketStatsService
}

func newDependencies(cfg *config.Config, log *logger.Logger, withJobs bool) (*dependencies, error) {
	deps := &dependencies{}
	ok := false
	defer func() {
		if !ok {
			deps.Close()
		}
	}()

	if withJobs || cfg.Storage.Backend == config.BackendPostgres {
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
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		deps.db = db
	}

	if cfg.Redis.Host != "" {
		client, err := redis.NewClient(redis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		deps.redisClient = client
	}

	var (
		barRepo       repository.BarRepository
		indicatorRepo repository.IndicatorRepository
		statRepo      repository.MarketStatRepository
	)
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		barRepo = repository.NewBarRepository(deps.db.DB)
		indicatorRepo = repository.NewIndicatorRepository(deps.db.DB)
		deps.stocksRepo = repository.NewStocksRepository(deps.db.DB)
	case config.BackendParquet:
		barRepo = repository.NewParquetBarRepository(cfg.Storage.DataDir)
		indicatorRepo = repository.NewParquetIndicatorRepository(cfg.Storage.DataDir)
		deps.stocksRepo = repository.NewParquetStocksRepository(cfg.Storage.DataDir)
	default:
		barRepo = repository.NewMemoryBarRepository()
		indicatorRepo = repository.NewMemoryIndicatorRepository()
		deps.stocksRepo = repository.NewMemoryStocksRepository()
	}
	if deps.db != nil {
		statRepo = repository.NewMarketStatRepository(deps.db.DB)
	} else {
		log.Warn("No database configured, market stats are kept in memory", zap.String("backend", cfg.Storage.Backend))
		statRepo = repository.NewMemoryMarketStatRepository()
	}

	var lockRepo repository.RunLockRepository
	if deps.redisClient != nil {
		lockRepo = repository.NewRedisRunLockRepository(deps.redisClient)
	} else {
		lockRepo = repository.NewLocalRunLockRepository()
	}

	notifier, err := telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telegram notifier: %w", err)
	}
	deps.notifier = notifier

	deps.provider = repository.NewEastMoneyRepository(cfg.Provider, log)
	exportRepo := repository.NewExportRepository(cfg.Storage.SnapshotDir, cfg.Storage.ReportDir)

	deps.pipeline, err = service.NewPipelineService(cfg, deps.provider, barRepo, indicatorRepo, deps.stocksRepo, exportRepo, lockRepo, notifier, log)
	if err != nil {
		return nil, err
	}
	deps.screening = service.NewScreeningService(cfg, indicatorRepo, deps.stocksRepo, exportRepo, notifier, log)
	deps.marketStats = service.NewMarketStatsService(cfg, indicatorRepo, deps.stocksRepo, statRepo, notifier, log)

	ok = true
	return deps, nil
}

// executor wires the job strategies to the execution history. It needs the database.
func (d *dependencies) executor(log *logger.Logger) service.ExecutorService {
	strategies := []strategy.JobExecutionStrategy{
		strategy.NewIndicatorPipelineStrategy(log, d.pipeline),
		strategy.NewScreeningReportStrategy(log, d.screening),
		strategy.NewMarketStatsStrategy(log, d.marketStats),
	}

	var streamClient *goredis.Client
	if d.redisClient != nil {
		streamClient = d.redisClient.Client
	}
	return service.NewExecutorService(
		streamClient,
		repository.NewJobRepository(d.db.DB),
		repository.NewTaskExecutionHistoryRepository(d.db.DB),
		d.notifier,
		log,
		strategies,
	)
}

// Close releases the database and Redis connections.
func (d *dependencies) Close() {
	if d.redisClient != nil {
		_ = d.redisClient.Close()
	}
	if d.db != nil {
		if sqlDB, err := d.db.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
