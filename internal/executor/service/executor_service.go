package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang-stock-indicator/internal/entity"
	"golang-stock-indicator/internal/executor/repository"
	"golang-stock-indicator/internal/executor/strategy"
	"golang-stock-indicator/pkg/common"
	"golang-stock-indicator/pkg/logger"
	"golang-stock-indicator/pkg/telegram"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// ExecutorService manages the execution of tasks.
type ExecutorService interface {
	// ProcessTask dequeues and executes a single task published by the scheduler.
	ProcessTask(ctx context.Context)
	// ExecuteJob runs a job outside the scheduler and records it in the execution history.
	ExecuteJob(ctx context.Context, jobID uint) (*entity.TaskExecutionHistory, error)
}

// NewExecutorService creates a new ExecutorService.
func NewExecutorService(
	redisClient *redis.Client,
	jobRepo repository.JobRepository,
	historyRepo repository.TaskExecutionHistoryRepository,
	notifier telegram.Notifier,
	log *logger.Logger,
	strategies []strategy.JobExecutionStrategy,
) ExecutorService {
	strategyMap := make(map[entity.JobType]strategy.JobExecutionStrategy)
	for _, s := range strategies {
		strategyMap[s.GetType()] = s
	}

	return &executorService{
		redisClient:        redisClient,
		jobRepo:            jobRepo,
		historyRepo:        historyRepo,
		notifier:           notifier,
		logger:             log,
		executorStrategies: strategyMap,
	}
}

type executorService struct {
	redisClient        *redis.Client
	jobRepo            repository.JobRepository
	historyRepo        repository.TaskExecutionHistoryRepository
	notifier           telegram.Notifier
	logger             *logger.Logger
	executorStrategies map[entity.JobType]strategy.JobExecutionStrategy
}

// runCounts picks the summary counts out of a strategy's JSON output.
type runCounts struct {
	RunID         string   `json:"run_id"`
	Updated       int      `json:"updated"`
	Skipped       int      `json:"skipped"`
	Failed        int      `json:"failed"`
	FailedSymbols []string `json:"failed_symbols"`
}

func (s *executorService) ProcessTask(ctx context.Context) {
	streams, err := s.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer,
		Streams:  []string{common.RedisStreamSchedulerTaskExecution, ">"},
		Count:    1,
		Block:    2 * time.Second,
	}).Result()
	if err != nil {
		// Cancellation and empty reads are expected while idle or shutting down.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return
		}
		s.logger.Error("Failed to read from stream", logger.ErrorField(err))
		return
	}
	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return
	}

	message := streams[0].Messages[0]
	defer s.ack(message.ID)

	taskData, ok := message.Values["payload"].(string)
	if !ok {
		s.logger.Error("field 'payload' not found or not a string in stream message", logger.Field("message_id", message.ID))
		return
	}

	var history entity.TaskExecutionHistory
	if err := json.Unmarshal([]byte(taskData), &history); err != nil {
		s.logger.Error("Failed to unmarshal task data", logger.ErrorField(err), logger.Field("message_id", message.ID))
		return
	}

	s.logger.Info("Processing job", logger.Field("job_id", history.JobID), logger.Field("history_id", history.ID))

	job, err := s.jobRepo.FindByID(ctx, history.JobID)
	if err != nil {
		s.logger.Error("Failed to find job", logger.ErrorField(err), logger.Field("job_id", history.JobID))
		return
	}

	s.executeAndUpdate(ctx, job, &history)
}

func (s *executorService) ack(messageID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.redisClient.XAck(ctx, common.RedisStreamSchedulerTaskExecution, common.RedisStreamGroup, messageID).Err(); err != nil {
		s.logger.Error("Failed to acknowledge message", logger.ErrorField(err), logger.Field("message_id", messageID))
	}
}

func (s *executorService) ExecuteJob(ctx context.Context, jobID uint) (*entity.TaskExecutionHistory, error) {
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	history := &entity.TaskExecutionHistory{
		JobID:     job.ID,
		Status:    entity.StatusRunning,
		StartedAt: time.Now(),
	}
	if err := s.historyRepo.Create(ctx, history); err != nil {
		return nil, fmt.Errorf("failed to create task history: %w", err)
	}

	s.executeAndUpdate(ctx, job, history)
	if history.Status == entity.StatusFailed {
		return history, errors.New(history.ErrorMessage.String)
	}
	return history, nil
}

func (s *executorService) executeAndUpdate(ctx context.Context, job *entity.Job, history *entity.TaskExecutionHistory) {
	execCtx := ctx
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, time.Duration(job.Timeout)*time.Second)
		defer cancel()
	}

	execStrategy, ok := s.executorStrategies[job.Type]
	if !ok {
		err := fmt.Errorf("no executor strategy found for task type: %s", job.Type)
		s.logger.Error("Job execution failed", logger.ErrorField(err), logger.Field("job_id", job.ID))
		history.Status = entity.StatusFailed
		history.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
	} else {
		output, err := execStrategy.Execute(execCtx, job)
		if err != nil {
			s.logger.Error("Job execution failed", logger.ErrorField(err), logger.Field("job_id", job.ID), logger.IntField("history_id", int(history.ID)))
			history.Status = entity.StatusFailed
			history.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
			if notifyErr := s.notifier.SendMessage(telegram.FormatErrorAlertMessage(time.Now(), string(job.Type), err.Error(), job.Name)); notifyErr != nil {
				s.logger.Warn("Failed to send error alert", logger.ErrorField(notifyErr))
			}
		} else {
			s.logger.Info("Job executed successfully", logger.Field("job_id", job.ID), logger.IntField("history_id", int(history.ID)))
			history.Status = entity.StatusCompleted
		}
		if output != "" {
			history.Output = sql.NullString{String: output, Valid: true}
			applyCounts(history, output)
		}
	}

	history.CompletedAt = sql.NullTime{Time: time.Now(), Valid: true}

	// The execution context may have expired; the history row must still be written.
	if err := s.historyRepo.Update(context.WithoutCancel(ctx), history); err != nil {
		s.logger.Error("Failed to update task history", logger.ErrorField(err), logger.Field("history_id", history.ID))
	}
	s.logger.Info("Job execution completed", logger.Field("job_id", job.ID), logger.IntField("history_id", int(history.ID)))
}

func applyCounts(history *entity.TaskExecutionHistory, output string) {
	var counts runCounts
	if err := json.Unmarshal([]byte(output), &counts); err != nil {
		return
	}
	history.RunID = counts.RunID
	history.Updated = counts.Updated
	history.Skipped = counts.Skipped
	history.Failed = counts.Failed
	history.FailedSymbols = pq.StringArray(counts.FailedSymbols)
}
