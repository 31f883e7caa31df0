package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"golang-stock-indicator/internal/executor/config"
	"golang-stock-indicator/internal/executor/delivery/consumer"
	"golang-stock-indicator/internal/executor/dto"
	"golang-stock-indicator/internal/executor/service"
	"golang-stock-indicator/pkg/common"
	"golang-stock-indicator/pkg/logger"
	"golang-stock-indicator/pkg/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string

	asOf      string
	forceFull bool
	symbols   []string
	skipRank  bool

	rankStart string
	rankEnd   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the execution service",
	Run:   runServe,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Runs one indicator pipeline batch in-process",
	RunE:  runPipeline,
}

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Recomputes RS ratings for every stored date in a range",
	RunE:  runRank,
}

var executeCmd = &cobra.Command{
	Use:   "execute <job-id>",
	Short: "Executes a stored job once and records it in the execution history",
	Args:  cobra.ExactArgs(1),
	RunE:  runExecute,
}

var syncStocksCmd = &cobra.Command{
	Use:   "sync-stocks",
	Short: "Refreshes the stock universe from the upstream list",
	RunE:  runSyncStocks,
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, appLogger := mustSetup()
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Execution Service", zap.String("name", cfg.App.Name))

	deps, err := newDependencies(cfg, appLogger, true)
	if err != nil {
		appLogger.Fatal("Failed to initialize dependencies", zap.Error(err))
	}
	defer deps.Close()
	if deps.redisClient == nil {
		appLogger.Fatal("Redis is required to consume scheduled tasks")
	}

	// MKSTREAM creates the stream if it doesn't exist
	if err := deps.redisClient.XGroupCreateMkStream(ctx, common.RedisStreamSchedulerTaskExecution, common.RedisStreamGroup, "0").Err(); err != nil {
		if err.Error() != "BUSYGROUP Consumer Group name already exists" {
			appLogger.Fatal("Failed to create consumer group", logger.ErrorField(err))
		}
	}

	executorSvc := deps.executor(appLogger)

	redisConsumer := consumer.NewRedisConsumer(cfg, executorSvc, appLogger)
	redisConsumer.Start(ctx)

	appLogger.Info("Execution service started. Waiting for tasks...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down execution service...")
	cancel()
	redisConsumer.Stop()
	appLogger.Info("Execution service stopped.")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, appLogger := mustSetup()
	defer func() { _ = appLogger.Sync() }()

	deps, err := newDependencies(cfg, appLogger, false)
	if err != nil {
		return err
	}
	defer deps.Close()

	summary, err := deps.pipeline.Run(ctx, dto.RunRequest{
		AsOf:      asOf,
		ForceFull: forceFull,
		Symbols:   symbols,
		SkipRank:  skipRank,
	})
	if summary != nil {
		printJSON(summary)
	}
	if errors.Is(err, service.ErrRunInProgress) {
		appLogger.Warn("Another run holds the pipeline lock")
	}
	return err
}

func runRank(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start, err := utils.ParseDate(rankStart)
	if err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}
	end, err := utils.ParseDate(rankEnd)
	if err != nil {
		return fmt.Errorf("invalid --end: %w", err)
	}

	cfg, appLogger := mustSetup()
	defer func() { _ = appLogger.Sync() }()

	deps, err := newDependencies(cfg, appLogger, false)
	if err != nil {
		return err
	}
	defer deps.Close()

	ranked, err := deps.pipeline.Rank(ctx, start, end)
	if err != nil {
		return err
	}
	appLogger.Info("Ranking finished", zap.Int("dates", ranked))
	return nil
}

func runExecute(cmd *cobra.Command, args []string) error {
	jobID, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid job id %q: %w", args[0], err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, appLogger := mustSetup()
	defer func() { _ = appLogger.Sync() }()

	// Jobs and their history live in the row store whatever the storage backend.
	deps, err := newDependencies(cfg, appLogger, true)
	if err != nil {
		return err
	}
	defer deps.Close()

	history, err := deps.executor(appLogger).ExecuteJob(ctx, uint(jobID))
	if history != nil {
		appLogger.Info("Job finished",
			zap.Uint("history_id", history.ID),
			zap.String("status", string(history.Status)),
			zap.String("run_id", history.RunID))
		if history.Output.Valid {
			fmt.Println(history.Output.String)
		}
	}
	return err
}

func runSyncStocks(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, appLogger := mustSetup()
	defer func() { _ = appLogger.Sync() }()

	deps, err := newDependencies(cfg, appLogger, false)
	if err != nil {
		return err
	}
	defer deps.Close()

	summary, err := service.NewStockSyncService(cfg, deps.provider, deps.stocksRepo, appLogger).Sync(ctx)
	if err != nil {
		return err
	}
	printJSON(summary)
	return nil
}

func mustSetup() (*config.Config, *logger.Logger) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	return cfg, appLogger
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func main() {
	rootCmd := &cobra.Command{Use: "execution-service", SilenceUsage: true}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config-executor.yaml", "Path to the configuration file")

	runCmd.Flags().StringVar(&asOf, "as-of", "", "As-of date (YYYY-MM-DD), default latest trading day")
	runCmd.Flags().BoolVar(&forceFull, "force-full", false, "Recompute every symbol from its first bar")
	runCmd.Flags().StringSliceVar(&symbols, "symbols", nil, "Restrict the run to these symbols")
	runCmd.Flags().BoolVar(&skipRank, "skip-rank", false, "Skip RS rating after the compute phase")

	rankCmd.Flags().StringVar(&rankStart, "start", "", "First date to rank (YYYY-MM-DD)")
	rankCmd.Flags().StringVar(&rankEnd, "end", "", "Last date to rank (YYYY-MM-DD)")
	_ = rankCmd.MarkFlagRequired("start")
	_ = rankCmd.MarkFlagRequired("end")

	rootCmd.AddCommand(serveCmd, runCmd, rankCmd, executeCmd, syncStocksCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing execution-service CLI: %s\n", err)
		os.Exit(1)
	}
}
