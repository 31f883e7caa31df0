package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"golang-stock-indicator/internal/entity"
	"golang-stock-indicator/internal/scheduler/repository"
	"golang-stock-indicator/pkg/common"
	"golang-stock-indicator/pkg/logger"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

// TaskPublisher hands a queued execution to the executor.
type TaskPublisher interface {
	Publish(ctx context.Context, history *entity.TaskExecutionHistory) error
}

// NewRedisTaskPublisher publishes executions to the scheduler task stream, trimmed to maxLen entries.
func NewRedisTaskPublisher(redisClient *redis.Client, maxLen int64) TaskPublisher {
	return &redisTaskPublisher{redisClient: redisClient, maxLen: maxLen}
}

type redisTaskPublisher struct {
	redisClient *redis.Client
	maxLen      int64
}

func (p *redisTaskPublisher) Publish(ctx context.Context, history *entity.TaskExecutionHistory) error {
	payload, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal task payload: %w", err)
	}
	err = p.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: common.RedisStreamSchedulerTaskExecution,
		Values: map[string]interface{}{"payload": string(payload)},
		MaxLen: p.maxLen,
		Approx: true,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// SchedulerService defines the interface for the job scheduling service.
type SchedulerService interface {
	Start(ctx context.Context)
	ProcessJobs(ctx context.Context)
}

// NewSchedulerService creates a new scheduler service.
func NewSchedulerService(
	scheduleRepo repository.TaskScheduleRepository,
	historyRepo repository.TaskExecutionHistoryRepository,
	publisher TaskPublisher,
	log *logger.Logger,
	pollingInterval time.Duration,
) SchedulerService {
	return &schedulerService{
		scheduleRepo:    scheduleRepo,
		historyRepo:     historyRepo,
		publisher:       publisher,
		logger:          log,
		pollingInterval: pollingInterval,
		cronParser:      cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		now:             time.Now,
	}
}

type schedulerService struct {
	scheduleRepo    repository.TaskScheduleRepository
	historyRepo     repository.TaskExecutionHistoryRepository
	publisher       TaskPublisher
	logger          *logger.Logger
	pollingInterval time.Duration
	cronParser      cron.Parser
	now             func() time.Time
}

// Start begins the periodic job processing loop.
func (s *schedulerService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.pollingInterval)
	defer ticker.Stop()

	s.logger.Info("Scheduler service started", logger.Field("polling_interval", s.pollingInterval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler service stopping")
			return
		case <-ticker.C:
			s.ProcessJobs(ctx)
		}
	}
}

// ProcessJobs finds and enqueues jobs that are due.
func (s *schedulerService) ProcessJobs(ctx context.Context) {
	now := s.now()
	schedules, err := s.scheduleRepo.FindDue(ctx, now)
	if err != nil {
		s.logger.Error("Failed to find jobs to schedule", logger.ErrorField(err))
		return
	}

	for _, schedule := range schedules {
		s.publishTask(ctx, schedule, now)
	}
}

func (s *schedulerService) publishTask(ctx context.Context, schedule entity.TaskSchedule, now time.Time) {
	// An unparsable expression would fire on every poll; deactivate it instead.
	cronSchedule, err := s.cronParser.Parse(schedule.CronExpression)
	if err != nil {
		s.logger.Error("Failed to parse cron expression, deactivating schedule", logger.ErrorField(err), logger.Field("schedule_id", schedule.ID))
		schedule.IsActive = false
		if err := s.scheduleRepo.Update(ctx, &schedule); err != nil {
			s.logger.Error("Failed to deactivate schedule", logger.ErrorField(err), logger.Field("schedule_id", schedule.ID))
		}
		return
	}

	// The first poll after a schedule is created only arms it.
	if schedule.NextExecution.Valid {
		scheduleID := schedule.ID
		history := &entity.TaskExecutionHistory{
			JobID:      schedule.JobID,
			ScheduleID: &scheduleID,
			Status:     entity.StatusRunning,
			StartedAt:  now,
		}
		if err := enqueue(ctx, s.historyRepo, s.publisher, history); err != nil {
			s.logger.Error("Failed to publish task", logger.ErrorField(err), logger.Field("schedule_id", schedule.ID))
			return
		}
		s.logger.Info("Task published successfully", logger.Field("history_id", history.ID), logger.Field("job_id", schedule.JobID))
		schedule.LastExecution = sql.NullTime{Time: now, Valid: true}
	}

	schedule.NextExecution = sql.NullTime{Time: cronSchedule.Next(now), Valid: true}
	if err := s.scheduleRepo.Update(ctx, &schedule); err != nil {
		s.logger.Error("Failed to update next execution time", logger.ErrorField(err), logger.Field("schedule_id", schedule.ID))
	}
}

// enqueue records a RUNNING execution and publishes it. A failed publish marks the row FAILED.
func enqueue(ctx context.Context, historyRepo repository.TaskExecutionHistoryRepository, publisher TaskPublisher, history *entity.TaskExecutionHistory) error {
	if err := historyRepo.Create(ctx, history); err != nil {
		return fmt.Errorf("failed to create task history: %w", err)
	}

	if err := publisher.Publish(ctx, history); err != nil {
		history.Status = entity.StatusFailed
		history.CompletedAt = sql.NullTime{Time: time.Now(), Valid: true}
		history.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
		if updateErr := historyRepo.Update(ctx, history); updateErr != nil {
			return fmt.Errorf("%w (history update also failed: %v)", err, updateErr)
		}
		return err
	}
	return nil
}
